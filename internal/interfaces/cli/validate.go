package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jhoicas/fiscal-ao/internal/application/dto"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/infrastructure/saft"
)

// ErrInvalid el SAF-T o la cadena no pasaron la verificación; el detalle ya se imprimió.
var ErrInvalid = errors.New("resultado inválido")

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Valida un archivo XML SAF-T AO",
	Long:  `Valida estructura, campos obligatorios, totales y hashes de un SAF-T. Termina con código 1 si hay errores.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var validateJSON bool

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Imprime el resultado como JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := afero.ReadFile(fs, args[0])
	if err != nil {
		return fmt.Errorf("leer %s: %w", args[0], err)
	}
	res := fiscal.ValidateSaft(saft.NewValidator(), data)

	if validateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printValidation(cmd, args[0], res)
	}
	if !res.Valid {
		return ErrInvalid
	}
	return nil
}

func printValidation(cmd *cobra.Command, name string, res *dto.SaftValidationResponse) {
	status := "VÁLIDO"
	if !res.Valid {
		status = "INVÁLIDO"
	}
	cmd.Printf("%s: %s (%d errores, %d advertencias)\n", name, status, len(res.Errors), len(res.Warnings))
	if res.Digest != "" {
		cmd.Printf("  Digest: %s\n", res.Digest)
	}
	printIssues(cmd, "ERROR", res.Errors)
	printIssues(cmd, "AVISO", res.Warnings)
}

func printIssues(cmd *cobra.Command, label string, issues []entity.ValidationIssue) {
	for _, is := range issues {
		if is.Field != "" {
			cmd.Printf("  %s [%s] %s: %s\n", label, is.Code, is.Field, is.Message)
			continue
		}
		cmd.Printf("  %s [%s] %s\n", label, is.Code, is.Message)
	}
}
