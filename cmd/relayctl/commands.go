package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/dashpay-relay/internal/config"
	"github.com/dropDatabas3/dashpay-relay/internal/credstore"
	"github.com/dropDatabas3/dashpay-relay/internal/envfile"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
	"github.com/dropDatabas3/dashpay-relay/internal/util"
)

type rootOpts struct {
	configPath string
	envFile    string
	key        string
	out        string // text | json
	verbose    bool

	cfg *config.Config
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	o := &rootOpts{}

	root := &cobra.Command{
		Use:           "relayctl",
		Short:         "Operaciones sobre la credencial DoorDash del relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if o.verbose {
				level = "debug"
			}
			logger.Init(logger.Config{Env: "dev", Level: level})

			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("env-file") {
				cfg.Credential.EnvFile = o.envFile
			}
			if cmd.Flags().Changed("key") {
				cfg.Credential.Key = o.key
			}
			if o.out != "text" && o.out != "json" {
				return fmt.Errorf("--out debe ser text o json")
			}
			o.cfg = cfg
			return nil
		},
	}
	root.SetOut(stdout)

	root.PersistentFlags().StringVar(&o.configPath, "config", os.Getenv("CONFIG_PATH"), "YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "archivo .env donde vive la credencial (default: env ENV_FILE)")
	root.PersistentFlags().StringVar(&o.key, "key", credstore.DefaultKey, "clave de la credencial dentro del .env")
	root.PersistentFlags().StringVar(&o.out, "out", "text", "formato de salida: text|json")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "logs de debug")

	root.AddCommand(newTokenCmd(o), newRotateCmd(o), newInspectCmd(o))
	return root
}

func (o *rootOpts) signer() (*jwt.Signer, error) {
	return jwt.NewSigner(o.cfg.Identity())
}

// token: firma e imprime, sin tocar el .env.
func newTokenCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Imprime una credencial recién firmada (no la persiste)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.signer()
			if err != nil {
				return err
			}
			c, err := s.Sign()
			if err != nil {
				return err
			}
			if o.out == "json" {
				return printJSON(cmd.OutOrStdout(), describe(c, time.Now(), true))
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Token)
			return nil
		},
	}
}

// rotate: mismo camino que el scheduler (firma + persistencia).
func newRotateCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Firma una credencial nueva y la escribe en el .env",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := o.signer()
			if err != nil {
				return err
			}
			record := envfile.New(o.cfg.Credential.EnvFile)
			if _, err := os.Stat(record.Path); err != nil {
				return fmt.Errorf("env file %s: %w", record.Path, err)
			}
			store := credstore.New(record, o.cfg.Credential.Key)

			c, err := s.Sign()
			if err != nil {
				return err
			}
			if err := store.Persist(c); err != nil {
				return err
			}

			if o.out == "json" {
				return printJSON(cmd.OutOrStdout(), describe(c, time.Now(), false))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rotated %s=%s in %s (expires %s)\n",
				store.Key(), util.MaskSecret(c.Token), record.Path, c.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

// inspect: decodifica lo que hay en el .env; --verify chequea la firma con la identity.
func newInspectCmd(o *rootOpts) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Muestra iss/kid/iat/exp de la credencial guardada",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			record := envfile.New(o.cfg.Credential.EnvFile)
			store := credstore.New(record, o.cfg.Credential.Key)
			c, err := store.Load()
			if err != nil {
				if errors.Is(err, envfile.ErrKeyNotFound) {
					return fmt.Errorf("%s not present in %s", store.Key(), record.Path)
				}
				return err
			}
			if c == nil {
				return fmt.Errorf("%s is empty in %s", store.Key(), record.Path)
			}

			info := describe(c, time.Now(), false)
			if verify {
				s, err := o.signer()
				if err != nil {
					return err
				}
				_, verr := s.Verify(c.Token)
				ok := verr == nil
				info.SignatureValid = &ok
			}

			if o.out == "json" {
				return printJSON(cmd.OutOrStdout(), info)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "token:   %s\n", util.MaskSecret(c.Token))
			if c.Opaque() {
				fmt.Fprintln(w, "opaque credential (not a JWT)")
			} else {
				fmt.Fprintf(w, "iss:     %s\nkid:     %s\niat:     %s\nexp:     %s\nexpired: %t\nttl:     %s\n",
					info.Issuer, info.KeyID,
					c.IssuedAt.Format(time.RFC3339), c.ExpiresAt.Format(time.RFC3339),
					info.Expired, time.Duration(info.TTLSeconds)*time.Second)
			}
			if info.SignatureValid != nil {
				fmt.Fprintf(w, "signature valid: %t\n", *info.SignatureValid)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "verificar la firma HS256 con SIGNING_SECRET")
	return cmd
}

type credentialInfo struct {
	Token          string     `json:"token,omitempty"`
	Issuer         string     `json:"iss,omitempty"`
	KeyID          string     `json:"kid,omitempty"`
	IssuedAt       *time.Time `json:"iat,omitempty"`
	ExpiresAt      *time.Time `json:"exp,omitempty"`
	Expired        bool       `json:"expired"`
	TTLSeconds     int64      `json:"ttl_seconds"`
	SignatureValid *bool      `json:"signature_valid,omitempty"`
}

func describe(c *jwt.Credential, now time.Time, withToken bool) credentialInfo {
	info := credentialInfo{
		Issuer:     c.Issuer,
		KeyID:      c.KeyID,
		Expired:    c.Expired(now),
		TTLSeconds: int64(c.TTL(now).Seconds()),
	}
	if withToken {
		info.Token = c.Token
	}
	if !c.Opaque() {
		iat, exp := c.IssuedAt, c.ExpiresAt
		info.IssuedAt, info.ExpiresAt = &iat, &exp
	}
	return info
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
