package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/ocr"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/pdf"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/service"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Copy a brochure PDF into the upload directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			up, err := svc.SaveUpload(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(up)
			}
			ui.Success("Uploaded %s (%d bytes)", up.Filename, up.SizeBytes)
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <filename>",
		Short: "Extract text and contact fields from an uploaded brochure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res service.BrochureExtraction
			err := ui.Spin("Extracting text", func() error {
				var err error
				res, err = svc.ExtractBrochure(cmd.Context(), args[0])
				return err
			})
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(res)
			}

			if res.Cached {
				ui.Info("Served from a previous extraction")
			}
			ui.Success("%s: %d characters via %s", res.Filename, res.RawTextLength, res.Engine)
			f := res.Fields
			ui.Field("Project", deref(f.ProjectName))
			ui.Field("Developer", deref(f.Developer))
			ui.Field("Location", deref(f.Location))
			ui.Field("RERA", deref(f.RERANumber))
			ui.Field("Phone", deref(f.Contact.Phone))
			ui.Field("Email", deref(f.Contact.Email))
			ui.Field("Website", deref(f.Contact.Website))
			if len(f.Amenities) > 0 {
				ui.Field("Amenities", strings.Join(f.Amenities, ", "))
			}
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var (
		outDir  string
		quality int
	)

	cmd := &cobra.Command{
		Use:   "render <file.pdf>",
		Short: "Render brochure pages to JPEG images for OCR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = cfg.OCR.ImagesDir
			}
			if err := pdf.NewValidator(logger).ValidatePDFPath(args[0]); err != nil {
				return err
			}

			var pages []string
			err := ui.Spin("Rendering pages", func() error {
				var err error
				pages, err = pdf.MuPDFEngine{}.RenderPages(cmd.Context(), args[0], outDir, quality)
				return err
			})
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(pages)
			}
			ui.Success("Rendered %d pages into %s", len(pages), outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: configured images dir)")
	cmd.Flags().IntVar(&quality, "quality", 90, "JPEG quality (1-100)")
	return cmd
}

func newOCRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ocr [dir]",
		Short: "OCR every image in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}

			svc.OnOCRProgress(ocr.ProgressFunc(ui.Progress("OCR")))
			results, err := svc.OCRDirectory(cmd.Context(), dir)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(results)
			}

			for _, r := range results {
				if r.Error != "" {
					ui.Warning("%s: %s", r.Image, r.Error)
					continue
				}
				ui.Success("%s [%s]", r.Image, r.Category)
			}
			return nil
		},
	}
}

func newStructureCmd() *cobra.Command {
	var (
		pdfText     string
		ocrText     string
		metadata    string
		projectName string
	)

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Structure extracted text into a project record",
		Long: `Structure sends the PDF text, OCR text and image metadata to the
configured model and prints the validated, enhanced record. Inputs are
read from files; any of them may be omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.StructureRequest{ProjectName: projectName}

			var err error
			if req.PDFText, err = readOptional(pdfText); err != nil {
				return err
			}
			if req.OCRText, err = readOptional(ocrText); err != nil {
				return err
			}
			if metadata != "" {
				if err := readJSON(metadata, &req.ImageMetadata); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			var res service.StructureResult
			err = ui.Spin("Structuring", func() error {
				var err error
				res, err = svc.StructureDocument(ctx, req)
				return err
			})
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(res)
			}
			if !res.OK {
				return fmt.Errorf("structuring failed: %s", res.Reason)
			}

			ui.Success("Structured with %s in %d attempt(s)", res.Meta.Model, res.Meta.Attempts)
			if res.ID != "" {
				ui.Field("Record ID", res.ID)
			}
			out, err := json.MarshalIndent(res.Record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfText, "pdf-text", "", "file with text extracted from the PDF")
	cmd.Flags().StringVar(&ocrText, "ocr-text", "", "file with OCR text")
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON file with image metadata")
	cmd.Flags().StringVar(&projectName, "project", "", "project name hint")
	return cmd
}

func newAskCmd() *cobra.Command {
	var (
		recordFile string
		recordID   string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from a structured record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := loadRecord(cmd.Context(), recordFile, recordID)
			if err != nil {
				return err
			}

			var ans domain.GroundedAnswer
			err = ui.Spin("Thinking", func() error {
				var err error
				ans, err = svc.Answer(cmd.Context(), args[0], record)
				return err
			})
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(ans)
			}
			fmt.Println(ans.Answer)
			return nil
		},
	}

	cmd.Flags().StringVar(&recordFile, "record", "", "JSON file with a structured record")
	cmd.Flags().StringVar(&recordID, "id", "", "ID of a stored record")
	return cmd
}

func loadRecord(ctx context.Context, file, id string) (domain.StructuredRecord, error) {
	switch {
	case file != "" && id != "":
		return domain.StructuredRecord{}, fmt.Errorf("use either --record or --id, not both")
	case id != "":
		stored, err := svc.GetRecord(ctx, id)
		if err != nil {
			return domain.StructuredRecord{}, err
		}
		return stored.Record, nil
	case file != "":
		var rec domain.StructuredRecord
		if err := readJSON(file, &rec); err != nil {
			return domain.StructuredRecord{}, err
		}
		return rec, nil
	default:
		return domain.StructuredRecord{}, fmt.Errorf("--record or --id is required")
	}
}

func newRecordsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List recently structured records",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := svc.ListRecords(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if outputJSON {
				return printJSON(recs)
			}
			if len(recs) == 0 {
				ui.Info("No records")
				return nil
			}
			for _, r := range recs {
				fmt.Printf("%s  %s  %s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.ProjectName)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to list")
	return cmd
}

func newPurgeCmd() *cobra.Command {
	var answers bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored data and temp files older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := svc.Purge(cmd.Context())
			if err != nil {
				return err
			}
			if answers {
				if err := svc.FlushAnswers(cmd.Context()); err != nil {
					return err
				}
			}
			if outputJSON {
				return printJSON(report)
			}
			ui.Success("Purged %d documents, %d OCR results, %d records, %d temp files",
				report.Documents, report.OCRResults, report.Records, report.TempFiles)
			if answers {
				ui.Success("Flushed cached answers")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&answers, "answers", false, "also flush the chatbot answer cache")
	return cmd
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
