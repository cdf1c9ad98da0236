package envvar

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/taksyapp/tasks-api/internal"
)

//Provider provides access to sensitive configuration values coming from a secrets store.
type Provider interface {
	Get(key string) (string, error)
}

//Configuration is the aggregate of plain environment variables and secret values.
type Configuration struct {
	provider Provider
}

//Load reads the env filename and loads it into ENV for this process, values already
//present in the environment win.
func Load(filename string) error {
	if filename == "" {
		return nil
	}

	if err := godotenv.Load(filename); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "godotenv.Load")
	}

	return nil
}

//New ...
func New(provider Provider) *Configuration {
	return &Configuration{
		provider: provider,
	}
}

//Get returns the value for key, when "<key>_SECURE" is defined its value is used as
//the secrets-store lookup path instead.
func (c *Configuration) Get(key string) (string, error) {
	res := os.Getenv(key)

	valSecret := os.Getenv(fmt.Sprintf("%s_SECURE", key))
	if valSecret != "" {
		valSecretRes, err := c.provider.Get(valSecret)
		if err != nil {
			return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "provider.Get")
		}

		res = valSecretRes
	}

	return res, nil
}
