package envvar_test

import (
	"testing"

	"github.com/taksyapp/tasks-api/internal/envvar"
)

type fakeProvider struct {
	values map[string]string
}

func (f *fakeProvider) Get(key string) (string, error) {
	return f.values[key], nil
}

func TestConfigurationGet(t *testing.T) {
	conf := envvar.New(&fakeProvider{values: map[string]string{
		"jwt:secret": "from-the-provider",
	}})

	t.Run("plain environment variable", func(t *testing.T) {
		t.Setenv("PLAIN_KEY", "plain-value")

		got, err := conf.Get("PLAIN_KEY")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "plain-value" {
			t.Errorf("got %q, want plain-value", got)
		}
	})

	t.Run("secure indirection", func(t *testing.T) {
		t.Setenv("JWT_SECRET_SECURE", "jwt:secret")

		got, err := conf.Get("JWT_SECRET")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "from-the-provider" {
			t.Errorf("got %q, want from-the-provider", got)
		}
	})
}
