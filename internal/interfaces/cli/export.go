package cli

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta el SAF-T AO de un período",
	Long:  `Genera el SAF-T de los documentos firmados del período y lo valida. El archivo se escribe aunque tenga errores; el comando termina con código 1 en ese caso.`,
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var (
	exportTenant string
	exportFrom   string
	exportTo     string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVar(&exportTenant, "tenant", "", "ID de la empresa")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Inicio del período (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Fin del período (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Archivo de salida (por defecto SAFT_AO_<empresa>_<desde>_<hasta>.xml)")
	for _, f := range []string{"tenant", "from", "to"} {
		_ = exportCmd.MarkFlagRequired(f)
	}
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	from, err := time.Parse(dateLayout, exportFrom)
	if err != nil {
		return fmt.Errorf("--from debe ser YYYY-MM-DD: %w", err)
	}
	to, err := time.Parse(dateLayout, exportTo)
	if err != nil {
		return fmt.Errorf("--to debe ser YYYY-MM-DD: %w", err)
	}

	ctx := commandContext(cmd)
	svc, closeFn, err := services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	job, err := svc.Export.Export(ctx, exportTenant, from, to)
	if err != nil {
		return fmt.Errorf("exportar: %w", err)
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("SAFT_AO_%s_%s_%s.xml", exportTenant, exportFrom, exportTo)
	}
	if err := afero.WriteFile(fs, out, job.XML, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", out, err)
	}

	cmd.Printf("SAF-T escrito en %s\n", out)
	cmd.Printf("  Documentos: %d\n", job.DocumentCount)
	cmd.Printf("  Digest:     %s\n", job.Digest)
	if !job.Validation.Valid {
		cmd.Printf("  Validación: INVÁLIDO (%d errores)\n", len(job.Validation.Errors))
		printIssues(cmd, "ERROR", job.Validation.Errors)
		return ErrInvalid
	}
	cmd.Println("  Validación: VÁLIDO")
	printIssues(cmd, "AVISO", job.Validation.Warnings)
	return nil
}
