package vault

import (
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"

	"github.com/taksyapp/tasks-api/internal"
)

//Provider ...
type Provider struct {
	client *api.Client
	path   string

	mutex sync.RWMutex
	data  map[string]string
}

//New instantiates a secrets provider talking to a Vault KV-V2 mount.
func New(token, addr, path string) (*Provider, error) {
	config := &api.Config{
		Address: addr,
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return &Provider{
		client: client,
		path:   path,
		data:   make(map[string]string),
	}, nil
}

//Get reads a secret value, results are memoized for the lifetime of the provider.
func (p *Provider) Get(key string) (string, error) {
	p.mutex.RLock()
	if res, ok := p.data[key]; ok {
		p.mutex.RUnlock()
		return res, nil
	}
	p.mutex.RUnlock()

	// The expected key format is "<secret>:<field>"
	fields := strings.Split(key, ":")
	if len(fields) != 2 {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "invalid key format: %s", key)
	}

	secret, err := p.client.Logical().Read(strings.Join([]string{p.path, "data", fields[0]}, "/"))
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Logical.Read")
	}
	if secret == nil {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "secret not found: %s", fields[0])
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeUnknown, "unexpected secret payload")
	}

	res, ok := data[fields[1]].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "field not found: %s", fields[1])
	}

	p.mutex.Lock()
	p.data[key] = res
	p.mutex.Unlock()

	return res, nil
}
