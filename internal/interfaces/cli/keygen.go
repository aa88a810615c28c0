package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-ao/internal/domain"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Genera el par de llaves RSA de firma de una empresa",
	Long: `Genera el par RSA de la empresa en el KeyStore e imprime la llave pública (PEM) que se
entrega a la AGT. Nunca reemplaza un par existente. Con --p12 importa un contenedor PKCS#12.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

var (
	keygenTenant   string
	keygenP12      string
	keygenPassword string
)

func init() {
	keygenCmd.Flags().StringVar(&keygenTenant, "tenant", "", "ID de la empresa")
	keygenCmd.Flags().StringVar(&keygenP12, "p12", "", "Importa la llave desde un archivo .p12/.pfx")
	keygenCmd.Flags().StringVar(&keygenPassword, "password", "", "Password del archivo .p12")
	_ = keygenCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	km, err := keyManager()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if keygenP12 != "" {
		raw, err := afero.ReadFile(fs, keygenP12)
		if err != nil {
			return fmt.Errorf("leer %s: %w", keygenP12, err)
		}
		kp, err := km.Import(ctx, keygenTenant, raw, keygenPassword)
		if err != nil {
			return fmt.Errorf("importar llaves: %w", err)
		}
		cmd.Printf("Llaves importadas para %s\n\n", keygenTenant)
		cmd.Print(string(kp.PublicKeyPEM))
		return nil
	}

	kp, err := km.Generate(ctx, keygenTenant)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) && kp != nil {
			cmd.Printf("La empresa %s ya tiene llaves (creadas %s); no se generó un par nuevo\n\n",
				keygenTenant, kp.CreatedAt.Format("2006-01-02 15:04:05"))
			cmd.Print(string(kp.PublicKeyPEM))
			return nil
		}
		return fmt.Errorf("generar llaves: %w", err)
	}
	cmd.Printf("Llaves generadas para %s\n\n", keygenTenant)
	cmd.Print(string(kp.PublicKeyPEM))
	return nil
}
