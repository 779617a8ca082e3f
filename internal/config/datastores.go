package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Datastore types understood by the opener.
const (
	DataStoreFile        = "File"
	DataStoreRedis       = "Redis"
	DataStorePostgres    = "Postgres"
	DataStoreKafka       = "Kafka"
	DataStoreObjectStore = "ObjectStore"
)

// DataStoreTypes lists the accepted Type values.
var DataStoreTypes = []string{DataStoreFile, DataStoreRedis, DataStorePostgres, DataStoreKafka, DataStoreObjectStore}

// DataStore is a named datastore definition, from the YAML file or a NewDataStore
// command.
type DataStore struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Path      string `yaml:"path,omitempty"`      // File directory
	Address   string `yaml:"address,omitempty"`   // host:port, DSN, or broker list
	Bucket    string `yaml:"bucket,omitempty"`    // ObjectStore bucket
	Topic     string `yaml:"topic,omitempty"`     // Kafka topic
	Namespace string `yaml:"namespace,omitempty"` // key prefix, table, or object prefix
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
	Region    string `yaml:"region,omitempty"`
}

// CanonicalType returns the declared spelling of a datastore type, ignoring case.
func CanonicalType(t string) (string, bool) {
	for _, known := range DataStoreTypes {
		if strings.EqualFold(t, known) {
			return known, true
		}
	}
	return "", false
}

// Validate checks that the fields required by the definition's type are present.
func (d DataStore) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("datastore name is required")
	}
	typ, ok := CanonicalType(d.Type)
	if !ok {
		return fmt.Errorf("datastore %s: unknown type %q (expected one of %s)",
			d.Name, d.Type, strings.Join(DataStoreTypes, ", "))
	}
	switch typ {
	case DataStoreFile:
		if d.Path == "" {
			return fmt.Errorf("datastore %s: path is required for type %s", d.Name, typ)
		}
	case DataStoreRedis, DataStorePostgres:
		if d.Address == "" {
			return fmt.Errorf("datastore %s: address is required for type %s", d.Name, typ)
		}
	case DataStoreKafka:
		if d.Topic == "" {
			return fmt.Errorf("datastore %s: topic is required for type %s", d.Name, typ)
		}
	case DataStoreObjectStore:
		if d.Address == "" || d.Bucket == "" {
			return fmt.Errorf("datastore %s: address and bucket are required for type %s", d.Name, typ)
		}
	}
	return nil
}

type dataStoreFile struct {
	DataStores []DataStore `yaml:"datastores"`
}

// LoadDataStores reads and validates a datastore definition file. Names must be
// unique, ignoring case.
func LoadDataStores(path string) ([]DataStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read DATASTORE_CONFIG: %w", err)
	}
	var doc dataStoreFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse DATASTORE_CONFIG %s: %w", path, err)
	}
	seen := map[string]bool{}
	for i, d := range doc.DataStores {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("DATASTORE_CONFIG entry %d: %w", i+1, err)
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return nil, fmt.Errorf("DATASTORE_CONFIG: duplicate datastore name %q", d.Name)
		}
		seen[key] = true
		doc.DataStores[i].Type, _ = CanonicalType(d.Type)
	}
	return doc.DataStores, nil
}
