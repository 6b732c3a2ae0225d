package consulta

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

// Config configures the portal lookup browser.
type Config struct {
	ProxyServer   string
	ProxyUsername string
	ProxyPassword string
}

// Service drives a shared headless Chrome against the federal
// transparency portal. One browser, one tab per lookup.
type Service struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *logger_i.Logger
}

func NewService(cfg Config) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger_i.NewLogger("Consulta"),
	}
}

// Start launches Chrome. A failed launch is not fatal to the rest of the
// service; lookups report the browser as unavailable instead.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled")
	if s.cfg.ProxyServer != "" {
		l = l.Proxy(s.cfg.ProxyServer)
		s.logger.Info("Using proxy", "server", s.cfg.ProxyServer)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("consulta: launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("consulta: connect browser: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		s.logger.Warn("Ignore cert errors failed", "error", err)
	}
	if s.cfg.ProxyUsername != "" {
		go func() { _ = b.HandleAuth(s.cfg.ProxyUsername, s.cfg.ProxyPassword)() }()
	}

	s.browser = b
	s.lnch = l
	s.logger.Info("Browser started")
	return nil
}

// Ready reports whether the browser is available for lookups.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browser != nil
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("Browser close failed", "error", err)
		}
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
}

const (
	outcomeNoRecords = iota
	outcomeAposentado
	outcomeOtherRows
)

// Consultar looks the CPF up on the portal and classifies it by the
// retirement date cutoff. The cpf argument must already be 11 bare digits.
func (s *Service) Consultar(ctx context.Context, cpf string) (Result, error) {
	s.mu.RLock()
	b := s.browser
	s.mu.RUnlock()
	if b == nil {
		return Result{}, fmt.Errorf("consulta: browser not started")
	}

	s.logger.Info("Starting search for CPF", "cpf", cpf)

	page, err := stealth.Page(b)
	if err != nil {
		return Result{}, fmt.Errorf("consulta: open tab: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.logger.Warn("Tab close failed", "error", err)
		}
	}()
	page = page.Context(ctx)

	blockRequests(page)

	navCtx, cancel := context.WithTimeout(ctx, config.BrowserNavTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(searchURL(cpf)); err != nil {
		return Result{}, fmt.Errorf("consulta: navigate: %w", err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.Warn("Wait load timeout", "error", err)
	}

	dismissCookieBanner(page)

	outcome := outcomeOtherRows
	row, err := page.Timeout(config.BrowserActionTimeout).Race().
		ElementR("body", "Nenhum registro encontrado").MustHandle(func(e *rod.Element) { outcome = outcomeNoRecords }).
		ElementR("tr", "Aposentado").MustHandle(func(e *rod.Element) { outcome = outcomeAposentado }).
		Element("table tbody tr").
		Do()
	if err != nil {
		return Result{}, fmt.Errorf("consulta: search results: %w", err)
	}

	switch outcome {
	case outcomeNoRecords:
		s.logger.Info("No records found for this CPF")
		return Result{Result: ResultDescarte, Message: "CPF não encontrado"}, nil
	case outcomeOtherRows:
		//the CPF exists but has no retirement entry (e.g. active duty)
		return Result{Result: ResultDescarte, Message: "Status is not 'Aposentado'"}, nil
	}

	s.logger.Info("Status 'Aposentado' found")

	links, err := row.Elements("a")
	if err != nil || len(links) == 0 {
		return Result{}, fmt.Errorf("consulta: detail link not found")
	}
	if err := links.Last().Click(proto.InputMouseButtonLeft, 1); err != nil {
		return Result{}, fmt.Errorf("consulta: open detail page: %w", err)
	}
	if err := page.Timeout(config.BrowserNavTimeout).WaitLoad(); err != nil {
		s.logger.Warn("Detail page load timeout", "error", err)
	}

	expandHistory(page)

	html := detailContent(page)
	dateStr, found := scanRetirementDate(html)
	if !found {
		return Result{Status: "error", Message: "Date not found in text"}, nil
	}
	return classifyRetirement(dateStr), nil
}

// blockRequests intercepts every request on the tab and drops heavy
// resources and tracking domains.
func blockRequests(page *rod.Page) {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlockRequest(string(h.Request.Type()), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}

// dismissCookieBanner is best effort; the portal works without it.
func dismissCookieBanner(page *rod.Page) {
	el, err := page.Timeout(2 * time.Second).ElementR("button", "Aceitar")
	if err != nil {
		return
	}
	_ = el.Click(proto.InputMouseButtonLeft, 1)
}

// expandHistory opens the contract-history accordion so the start date
// fallback becomes scannable. Not critical if it fails.
func expandHistory(page *rod.Page) {
	el, err := page.Timeout(5 * time.Second).ElementR("button, a, span, h4", "Histórico dos vínculos com o poder executivo federal")
	if err != nil {
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return
	}
	time.Sleep(500 * time.Millisecond) //content expands client side
}

// detailContent prefers the main content region; the full document is
// the fallback.
func detailContent(page *rod.Page) string {
	if el, err := page.Timeout(5 * time.Second).Element("main, .conteudo-principal, #conteudo"); err == nil {
		if html, err := el.HTML(); err == nil {
			return html
		}
	}
	html, err := page.HTML()
	if err != nil {
		return ""
	}
	return html
}
