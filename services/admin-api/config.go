package main

import (
	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/twinstore/adapters/mongodb"
)

// AppConfig is the admin-api deployable's configuration, loaded through
// pkg/config's layered resolution (defaults < ./config/admin-api.yaml <
// ./config/local_admin-api.yaml < ADMIN_API_ env vars < --config).
type AppConfig struct {
	// Registry is reused only for its broker/topology fields (MirAddr,
	// ThreadCount); the admin API never starts a consumer pool.
	Registry registry.Config `yaml:"registry"`
	Mongo    mongodb.Config  `yaml:"mongo"`

	StoreBackend string `yaml:"store_backend" env:"STORE_BACKEND" env-default:"memory"`

	HTTPAddr string `yaml:"http_addr" env:"HTTP_ADDR" env-default:":8081"`
}
