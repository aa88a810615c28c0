package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/pkg/jwt"
)

var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Crea un usuario de una empresa",
	Long: `Crea un usuario de la empresa. Sirve para dar de alta al primer admin, que luego
registra la empresa (PUT /api/company) y crea el resto de usuarios por la API.`,
	Args: cobra.NoArgs,
	RunE: runUseradd,
}

var (
	useraddTenant   string
	useraddEmail    string
	useraddPassword string
	useraddName     string
	useraddRole     string
)

func init() {
	useraddCmd.Flags().StringVar(&useraddTenant, "tenant", "", "ID de la empresa")
	useraddCmd.Flags().StringVar(&useraddEmail, "email", "", "Email (login)")
	useraddCmd.Flags().StringVar(&useraddPassword, "password", "", "Password (mínimo 8 caracteres)")
	useraddCmd.Flags().StringVar(&useraddName, "name", "", "Nombre visible")
	useraddCmd.Flags().StringVar(&useraddRole, "role", jwt.RoleAdmin, "admin, operador o auditor")
	_ = useraddCmd.MarkFlagRequired("tenant")
	_ = useraddCmd.MarkFlagRequired("email")
	_ = useraddCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(useraddCmd)
}

func runUseradd(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	svc, closeFn, err := services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	u, err := svc.Users.CreateUser(ctx, useraddTenant, dto.CreateUserRequest{
		Email:    useraddEmail,
		Password: useraddPassword,
		Name:     useraddName,
		Role:     useraddRole,
	})
	if err != nil {
		return fmt.Errorf("crear usuario: %w", err)
	}
	cmd.Printf("Usuario %s (%s) creado en %s con ID %s\n", u.Email, u.Role, u.CompanyID, u.ID)
	return nil
}
