package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/equitygate/internal/filex"
	"github.com/dmitrijs2005/equitygate/internal/netx"
)

func (a *App) RequestCompanyVerification(ctx context.Context) error {
	companyID, err := a.prompt("-Company ID")
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.RequestCompanyVerification(ctx, companyID); err != nil {
		return a.report(err)
	}
	a.println("Verification code sent to the company contact email")
	return nil
}

func (a *App) ConfirmCompanyVerification(ctx context.Context) error {
	companyID, err := a.prompt("-Company ID")
	if err != nil {
		return a.report(err)
	}
	code, err := a.prompt("-Enter verification code")
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.client.VerifyCompany(ctx, companyID, code); err != nil {
		return a.report(err)
	}
	a.println("Company verified")
	return nil
}

// Upload reserves a document slot and streams the local file to the
// presigned URL.
func (a *App) Upload(ctx context.Context) error {
	companyID, err := a.prompt("-Company ID")
	if err != nil {
		return a.report(err)
	}
	kind, err := a.prompt("-Document kind (pitch_deck, cap_table, incorporation)")
	if err != nil {
		return a.report(err)
	}
	path, err := a.prompt("-Path to file")
	if err != nil {
		return a.report(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return a.report(err)
	}

	callCtx, cancel := a.callCtx(ctx)
	ticket, err := a.client.PresignUpload(callCtx, companyID, kind)
	cancel()
	if err != nil {
		return a.report(err)
	}

	upCtx, cancel := context.WithTimeout(ctx, a.config.UploadTimeout)
	defer cancel()

	if err := netx.UploadToPresignedURL(upCtx, ticket.URL, data); err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Uploaded %s (%d bytes) as document %s\n", filepath.Base(path), len(data), ticket.DocumentID)
	return nil
}

func (a *App) Documents(ctx context.Context) error {
	companyID, err := a.prompt("-Company ID")
	if err != nil {
		return a.report(err)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	docs, err := a.client.ListDocuments(ctx, companyID)
	if err != nil {
		return a.report(err)
	}
	if len(docs) == 0 {
		a.println("No documents")
		return nil
	}

	for _, d := range docs {
		fmt.Fprintf(a.out, "%s  %-14s %s\n", d.ID, d.Kind, d.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *App) Download(ctx context.Context) error {
	documentID, err := a.prompt("-Document ID")
	if err != nil {
		return a.report(err)
	}
	path, err := a.prompt("-Save to (empty for " + a.config.DownloadDir + "/)")
	if err != nil {
		return a.report(err)
	}
	path, err = filex.TargetPath(path, a.config.DownloadDir, documentID)
	if err != nil {
		return a.report(err)
	}

	callCtx, cancel := a.callCtx(ctx)
	url, err := a.client.PresignDownload(callCtx, documentID)
	cancel()
	if err != nil {
		return a.report(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return a.report(err)
	}
	defer f.Close()

	dlCtx, cancel := context.WithTimeout(ctx, a.config.UploadTimeout)
	defer cancel()

	n, err := netx.DownloadFromPresignedURL(dlCtx, url, f)
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", n, path)
	return nil
}
