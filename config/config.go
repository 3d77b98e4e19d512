package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string
	LogLevel string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Auth      AuthConfigs
	Session   SessionConfigs
	Redis     RedisConfigs
	Campaign  CampaignConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string

	// Page size bounds for listing endpoints.
	MaxLimit     int
	DefaultLimit int
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type SessionConfigs struct {
	Secret string
	Name   string
}

type RedisConfigs struct {
	Addr string
}

type CampaignConfigs struct {
	// ReferenceCodeLength is the length of issued redemption codes.
	ReferenceCodeLength uint

	// DefaultRedemptionWindow applies when a campaign does not set its own
	// window.
	DefaultRedemptionWindow time.Duration

	// PreviewResultTTL bounds how long a sandbox spin result stays
	// retrievable.
	PreviewResultTTL time.Duration

	// MaxReserveRetry bounds the optimistic retry loop when two plays race
	// to create the same quota counter.
	MaxReserveRetry int
}
