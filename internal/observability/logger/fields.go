package logger

import (
	"time"

	"go.uber.org/zap"
)

// --- HTTP ---

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// Duration crea un campo para la duración de un request o llamada saliente.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// --- Credencial / relay ---

// Provider identifica el tercero llamado (doordash, stripe).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Attempt es el número de intento (1 o 2) dentro de una llamada lógica.
func Attempt(v int) zap.Field { return zap.Int("attempt", v) }

// Source indica quién disparó un refresh: startup, scheduler, relay, cli.
func Source(v string) zap.Field { return zap.String("source", v) }

// KeyID es el kid de la identity. Nunca loguear el token.
func KeyID(v string) zap.Field { return zap.String("key_id", v) }

// ExpiresAt es el exp de una credencial.
func ExpiresAt(v time.Time) zap.Field { return zap.Time("expires_at", v) }

// ErrorCode es el "code" del payload de error de un proveedor.
func ErrorCode(v string) zap.Field { return zap.String("error_code", v) }

// ID es un identificador devuelto por un proveedor (p.ej. pi_...).
func ID(v string) zap.Field { return zap.String("id", v) }

// File es el path del registro durable.
func File(v string) zap.Field { return zap.String("file", v) }

// --- Sistema ---

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
