// Package credentials resolves per-agent secrets from the environment.
// Keys are looked up agent-scoped first (AGENT_NAME_CLASSIFIER_API_KEY),
// then globally (CLASSIFIER_API_KEY).
package credentials

import (
	"os"
	"strings"
)

// Credentials are the secrets the pipeline's collaborators need.
type Credentials struct {
	ClassifierAPIKey string
	DeliveryBotToken string
	StorageID        string
}

// Store is the credential lookup collaborator. Read-only.
type Store interface {
	Get(agentName string) Credentials
}

// EnvStore reads credentials from environment variables. A .env file loaded
// at startup feeds the same path.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (s *EnvStore) Get(agentName string) Credentials {
	return Credentials{
		ClassifierAPIKey: scopedLookup(agentName, "CLASSIFIER_API_KEY"),
		DeliveryBotToken: scopedLookup(agentName, "DELIVERY_BOT_TOKEN"),
		StorageID:        scopedLookup(agentName, "STORAGE_ID"),
	}
}

// StaticStore serves fixed credentials, useful for tests.
type StaticStore struct {
	Creds Credentials
}

func (s *StaticStore) Get(string) Credentials {
	return s.Creds
}

func scopedLookup(agentName, key string) string {
	prefix := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(agentName))
	if prefix != "" {
		if val := os.Getenv(prefix + "_" + key); val != "" {
			return val
		}
	}
	return os.Getenv(key)
}
