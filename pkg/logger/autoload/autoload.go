// Package autoload initializes the global logger from the environment on import.
package autoload

import (
	configx "github.com/frontdeskhq/frontdesk/pkg/config"
	logx "github.com/frontdeskhq/frontdesk/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}
