package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bashhack/gitcheckpoint/internal/logger"
)

func TestDefaultInteractor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  bool
	}{
		"yes":                {"yes\n", true},
		"y uppercase":        {"Y\n", true},
		"no":                 {"n\n", false},
		"empty line":         {"\n", false},
		"eof":                {"", false},
		"yes without enter":  {"y", true},
		"leading whitespace": {"   yep\n", true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			log := logger.NewWithOutput(false, "", true, &out, &out)
			i := &DefaultInteractor{Reader: strings.NewReader(tc.input), Logger: log}

			assert.Equal(t, tc.want, i.PromptYesNo("Roll back to v0.2-auto?"))
			assert.Contains(t, out.String(), "Roll back to v0.2-auto? (y/n): ")
		})
	}
}

func TestNonInteractive(t *testing.T) {
	t.Parallel()

	assert.False(t, NewNonInteractiveInteractor().PromptYesNo("anything"))
	assert.True(t, NewAssumeYesInteractor().PromptYesNo("anything"))
}
