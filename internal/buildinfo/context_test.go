package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Getters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
		host      string
	}{
		{"nil context", nil, UnknownValue, UnknownValue, UnknownValue},
		{"empty values", &Context{}, UnknownValue, UnknownValue, UnknownValue},
		{"populated", &Context{Version: "1.2.0", BuildDate: "2024-03-01", Host: "sta-01"}, "1.2.0", "2024-03-01", "sta-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
			assert.Equal(t, tt.host, tt.ctx.GetHost())
		})
	}
}

func TestNewContext_HostFallback(t *testing.T) {
	t.Parallel()

	ctx := NewContext("1.0.0", "", "")
	assert.NotEmpty(t, ctx.Host)
	assert.Equal(t, "given", NewContext("", "", "given").Host)
}

func TestContext_NodeName(t *testing.T) {
	t.Parallel()

	ctx := &Context{Host: "sta-01"}
	assert.Equal(t, "sta-01", ctx.NodeName(""))
	assert.Equal(t, "array-a", ctx.NodeName("array-a"))
}

func TestContext_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "seismo-go 1.0.0 (built unknown)", (&Context{Version: "1.0.0"}).String())
}
