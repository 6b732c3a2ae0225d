package consulta

import "testing"

func TestClassifySituacao(t *testing.T) {
	cases := []struct {
		name     string
		html     string
		expected string
		found    bool
	}{
		{
			name:     "deceased holder",
			html:     `<span>Situação Cadastral:</span> <b>TITULAR FALECIDO</b>`,
			expected: "TITULAR FALECIDO",
			found:    true,
		},
		{
			name:     "cancelled by death",
			html:     `Situação Cadastral: CANCELADA POR ÓBITO`,
			expected: "CANCELADA POR ÓBITO",
			found:    true,
		},
		{
			name:     "regular needs the status label on the page",
			html:     `<b>Situação Cadastral:</b> <span>REGULAR</span>`,
			expected: "REGULAR",
			found:    true,
		},
		{
			name:     "pending normalizes to the full status",
			html:     `situação cadastral: pendente`,
			expected: "PENDENTE DE REGULARIZAÇÃO",
			found:    true,
		},
		{
			name:     "suspended",
			html:     `Situação Cadastral: SUSPENSA`,
			expected: "SUSPENSA",
			found:    true,
		},
		{
			name:     "null registration",
			html:     `Situação Cadastral: NULA`,
			expected: "NULA",
			found:    true,
		},
		{
			name:     "deceased outranks regular on the same page",
			html:     `Situação Cadastral: REGULAR ... TITULAR FALECIDO`,
			expected: "TITULAR FALECIDO",
			found:    true,
		},
		{
			name:     "unknown status via markup",
			html:     `Situação Cadastral: <span>EM ANALISE</span>`,
			expected: "EM ANALISE",
			found:    true,
		},
		{
			name:  "no status anywhere",
			html:  `<p>Serviço indisponível no momento</p>`,
			found: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			situacao, found := classifySituacao(tc.html)
			if found != tc.found {
				t.Fatalf("expected found=%v, got %v", tc.found, found)
			}
			if situacao != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, situacao)
			}
		})
	}
}

func TestScanNome(t *testing.T) {
	html := `<span>Nome:</span> <b>MARIA JOSÉ DA SILVA</b><br>Situação Cadastral: REGULAR`
	if nome := scanNome(html); nome != "MARIA JOSÉ DA SILVA" {
		t.Errorf("unexpected name: %q", nome)
	}
	if nome := scanNome(`<p>sem resultado</p>`); nome != "" {
		t.Errorf("expected empty name, got %q", nome)
	}
}

func TestIsDeceasedStatus(t *testing.T) {
	cases := []struct {
		situacao string
		deceased bool
	}{
		{"TITULAR FALECIDO", true},
		{"CANCELADA POR ÓBITO", true},
		{"cancelada por óbito", true},
		{"REGULAR", false},
		{"SUSPENSA", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isDeceasedStatus(tc.situacao); got != tc.deceased {
			t.Errorf("expected deceased=%v for %q", tc.deceased, tc.situacao)
		}
	}
}

func TestIsNotFoundPage(t *testing.T) {
	if !isNotFoundPage(`<p>CPF não encontrado na base</p>`) {
		t.Error("expected not-found for the missing CPF message")
	}
	if !isNotFoundPage(`Os Dados Informados Não Conferem com a base`) {
		t.Error("expected not-found for the mismatch message")
	}
	if isNotFoundPage(`Situação Cadastral: REGULAR`) {
		t.Error("expected a regular page to pass")
	}
}
