package sanitize

import "testing"

func TestMessage(t *testing.T) {
	cases := map[string]string{
		"":                                    "",
		"  CEP não encontrado ":               "CEP não encontrado",
		"<b>Validation</b> failed":            "Validation failed",
		"<script>alert(1)</script>Erro":       "Erro",
		"O campo\n  email &amp; já existe":    "O campo email & já existe",
		"Todos os serviços de CEP retornaram": "Todos os serviços de CEP retornaram",
	}
	for in, want := range cases {
		if got := Message(in); got != want {
			t.Errorf("Message(%q) = %q, want %q", in, got, want)
		}
	}
}
