package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "collapses whitespace and newlines", in: "  Maria \t Silva\n\n\nSantos  ", want: "Maria Silva Santos"},
		{name: "drops noise characters", in: "Curso | de • Python* 3!", want: "Curso de Python 3"},
		{name: "keeps accented letters", in: "Conclusão de Programação Avançada", want: "Conclusão de Programação Avançada"},
		{name: "composes decomposed accents", in: "Jo\u0061\u0303o", want: "Joã" + "o"},
		{name: "punctuation spacing", in: "Data : 10/05/2024 ,Carga horária:40h .", want: "Data: 10/05/2024, Carga horária: 40h."},
		{name: "semicolon is filtered out", in: "a ; b", want: "a b"},
		{name: "keeps hyphen and slash", in: "UC-1234 ude.my/abc", want: "UC-1234 ude. my/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"a.,b",
		"a , . b",
		"x .. y ::z",
		"Certificado de Conclusão\r\nMaria  Silva Data 10 de Maio de 2024",
		"ᄀ!ᅡ",
		"Carga horária: 40h; Instrutores: João • Pedro | UC-99a-bc",
		"e\u0301 ,\u00a0\u2003.",
		"___---///",
		strings.Repeat("ab. ", 50),
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeEndToEndSample(t *testing.T) {
	in := "Maria Silva Santos\nData 10 de Maio de 2024\nCurso de Python 3 Completo\nCarga horaria de 40h\nInstrutores: João"
	want := "Maria Silva Santos Data 10 de Maio de 2024 Curso de Python 3 Completo Carga horaria de 40h Instrutores: João"
	assert.Equal(t, want, Normalize(in))
}
