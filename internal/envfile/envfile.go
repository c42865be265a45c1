package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Var map[string]string

// Env composes the environment handed to the managed process. The bot's
// secret token travels through here as an ordinary variable; the
// supervisor never inspects or validates it.
type Env struct {
	Var Var // overrides applied on top of files (K->V)

	fileVars Var // accumulated dotenv file vars
	base     Var // cached OS environment
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			base[k] = kv[i+1:]
		}
	}
	e.base = base
}

// Set sets an override K=V.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// LoadFiles reads dotenv files in order; later files win over earlier
// ones, overrides set via Set win over all files. A missing file is an
// error: a configured env file is expected to carry the bot token.
func (e *Env) LoadFiles(paths ...string) error {
	for _, p := range paths {
		vars, err := godotenv.Read(p)
		if err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
		if e.fileVars == nil {
			e.fileVars = make(Var)
		}
		for k, v := range vars {
			if k == "" {
				continue
			}
			e.fileVars[k] = v
		}
	}
	return nil
}

// Merge composes the final environment list:
// base = OS env (cached), then dotenv file vars, then Var overrides,
// then extra (slice of "K=V"). ${VAR} expansion is performed against the
// composed map, simple and non-recursive.
func (e *Env) Merge(extra []string) []string {
	if e.base == nil {
		e.FromOS()
	}
	m := make(Var)
	for k, v := range e.base {
		m[k] = v
	}
	for k, v := range e.fileVars {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	for _, kv := range extra {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			m[k] = kv[i+1:]
		}
	}
	expanded := make(Var, len(m))
	for k, v := range m {
		expanded[k] = expand(v, m)
	}
	out := make([]string, 0, len(expanded))
	for k, v := range expanded {
		out = append(out, k+"="+v)
	}
	return out
}

func expand(s string, m Var) string {
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
