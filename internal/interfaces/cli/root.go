// Package cli comandos del binario saft: validar, exportar y verificar archivos y cadenas
// fiscales fuera del servidor HTTP, y dar de alta al primer usuario de una empresa.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-ao/internal/application/auth"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
)

// Services casos de uso que requieren la base de datos.
type Services struct {
	Docs   *fiscal.DocumentUseCase
	Export *fiscal.ExportUseCase
	Users  *auth.AuthUseCase
}

// Deps fábricas de servicios. Se abren bajo demanda: validate no necesita ninguna y keygen
// solo el KeyStore.
type Deps struct {
	Keys     func() (*fiscal.KeyManager, error)
	Services func(ctx context.Context) (svc *Services, closeFn func(), err error)
}

var (
	deps Deps
	// fs sistema de archivos para leer y escribir SAF-T (MemMapFs en pruebas).
	fs afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:           "saft",
	Short:         "Herramientas SAF-T AO y cadena de firma AGT",
	Long:          `Valida archivos SAF-T (AO) 1.01_01, genera llaves de firma, exporta el SAF-T de un período, verifica la cadena de hash de una serie y crea usuarios.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetDeps configura las fábricas antes de Execute.
func SetDeps(d Deps) { deps = d }

// Execute ejecuta el comando raíz.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func keyManager() (*fiscal.KeyManager, error) {
	if deps.Keys == nil {
		return nil, errors.New("KeyStore no configurado")
	}
	return deps.Keys()
}

func services(ctx context.Context) (*Services, func(), error) {
	if deps.Services == nil {
		return nil, nil, errors.New("base de datos no configurada")
	}
	return deps.Services(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
