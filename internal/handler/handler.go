package handler

import (
	"aidat-service/pkg/config"
	"aidat-service/pkg/mailer"
)

var (
	appCfg *config.AppConfig
	mail   mailer.Mailer
)

// Initialize wires the handler package to application settings and the
// outbound mailer. Must be called once before routes are served.
func Initialize(app *config.AppConfig, m mailer.Mailer) {
	appCfg = app
	mail = m
}
