// Package logger provee un logger Zap singleton con scoping por contexto.
//
// Init() se llama una vez en cmd/relay; el resto del código usa L() o
// From(ctx). El middleware de request id inyecta un logger con request_id en
// el contexto, así los logs del relay saliente quedan atados al request
// entrante que los originó.
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Component("doordash"))
//	log.Warn("authentication rejected", logger.Attempt(1))
package logger
