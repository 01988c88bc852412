package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cadastro/internal/browser"
	"cadastro/internal/complaint"
	"cadastro/internal/health"
	"cadastro/internal/summary"
	"cadastro/internal/web"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Initialize the workbook and serve the complaint form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd)
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the workbook with the header row if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			if err := store.Initialize(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Planilha pronta: %s\n", store.Path())
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every stored complaint",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.store().ReadAll()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecords(records))
			return nil
		},
	}
}

func (a *app) formatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format",
		Short: "Re-apply column widths, styles and the table object",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			if err := store.Format(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Planilha formatada: %s\n", store.Path())
			return nil
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	var (
		output string
		send   bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Render the complaint table as a PNG image",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.store().ReadAll()
			if err != nil {
				return err
			}
			png, err := summary.RenderTable(records, time.Now())
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imagem salva em %s\n", output)

			if send {
				tg := a.telegram()
				if tg == nil {
					return errors.New("telegram is not configured")
				}
				caption := fmt.Sprintf("Cadastro de Reclamações: %d registros", len(records))
				if err := tg.SendPhoto(cmd.Context(), png, caption); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "relatorio.png", "PNG file to write")
	cmd.Flags().BoolVar(&send, "send", false, "also post the image to the Telegram chat")
	return cmd
}

func (a *app) exportPDFCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-pdf",
		Short: "Print the report page to PDF through headless Chrome",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExportPDF(cmd, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "relatorio.pdf", "PDF file to write")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	store := a.store()
	if err := store.Initialize(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := web.NewRouter(web.Deps{
		Controller: a.controller(store),
		StorePath:  store.Path(),
		Monitor:    health.NewMonitor(store.Path()),
		Logger:     a.logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving complaint form",
			zap.String("addr", a.cfg.HTTPAddr),
			zap.String("store", store.Path()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runExportPDF serves the report on a loopback port just long enough for
// Chrome to print it.
func (a *app) runExportPDF(cmd *cobra.Command, output string) error {
	store := a.store()
	if _, err := store.ReadAll(); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := web.NewRouter(web.Deps{
		Controller: complaint.NewController(store, complaint.WithLogger(a.logger)),
		StorePath:  store.Path(),
		Logger:     a.logger.Named("http"),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.PDFTimeout)
	defer cancel()
	bctx, closeBrowser := browser.NewContext(ctx, a.cfg.ChromePath, a.logger.Named("browser"))
	defer closeBrowser()

	port := ln.Addr().(*net.TCPAddr).Port
	pdf, err := browser.PrintToPDF(bctx, "http://127.0.0.1:"+strconv.Itoa(port)+"/relatorio")
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "PDF salvo em %s\n", output)
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4CAF50")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
)

// renderRecords draws the list view: the columns a terminal can hold.
func renderRecords(records []complaint.Record) string {
	if len(records) == 0 {
		return "Nenhum cadastro."
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Nº", "Data", "Nome", "Telefone", "Email", "Processo", "Status", "Data Retorno").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range records {
		t.Row(
			strconv.Itoa(r.Number),
			complaint.FormatDisplayDate(r.ReceivedDate),
			r.Name,
			r.Phone,
			r.Email,
			string(r.Process),
			string(r.ReturnStatus),
			complaint.FormatDisplayDate(r.ReturnDate),
		)
	}
	return t.Render()
}
