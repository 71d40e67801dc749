package document

import (
	"context"
	"fmt"

	"github.com/kerpat/serverdogovor/repository/pdfrender"
	storagerepo "github.com/kerpat/serverdogovor/repository/storage"
)

// Publisher renders markup to a PDF and uploads it under a deterministic key.
// Publishing the same coordinates twice overwrites the prior document.
type Publisher struct {
	engine pdfrender.Engine
	store  storagerepo.Repo
}

func NewPublisher(engine pdfrender.Engine, store storagerepo.Repo) *Publisher {
	return &Publisher{engine: engine, store: store}
}

func (p *Publisher) Publish(ctx context.Context, kind Kind, clientID, rentalID string, signed bool, body string) (string, error) {
	pdf, err := p.engine.Convert(ctx, pageShell(body))
	if err != nil {
		return "", err
	}
	return p.store.Upload(ctx, StoragePath(kind, clientID, rentalID, signed), pdf, "application/pdf")
}

// StoragePath derives the object key from document kind, owner, rental and
// signing state. Contracts exist only signed: the document is produced at
// confirmation, never as a preview.
func StoragePath(kind Kind, clientID, rentalID string, signed bool) string {
	switch {
	case kind == KindContract:
		return fmt.Sprintf("signed/%s/rental_%s_signed.pdf", clientID, rentalID)
	case signed:
		return fmt.Sprintf("returns/%s/return_act_%s_signed.pdf", clientID, rentalID)
	default:
		return fmt.Sprintf("returns/%s/return_act_%s.pdf", clientID, rentalID)
	}
}

// pageShell wraps document markup in a fixed A4 print shell.
func pageShell(body string) string {
	return fmt.Sprintf(shell, body)
}

const shell = `<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<style>
  @page { size: A4; margin: 20mm; }
  body {
    font-family: "DejaVu Sans", Arial, sans-serif;
    font-size: 12px;
    color: #000;
    -webkit-print-color-adjust: exact;
    print-color-adjust: exact;
  }
  h1 { font-size: 16px; text-align: center; }
  h2 { font-size: 13px; margin: 14px 0 6px; }
  .doc-meta { text-align: center; color: #333; }
  table.props { width: 100%%; border-collapse: collapse; }
  table.props td { border: 1px solid #999; padding: 4px 8px; }
  table.props td:first-child { width: 45%%; background: #f4f4f4; }
  ul.defects { margin: 6px 0 6px 18px; }
  .clause { margin-top: 12px; }
  .sign-block { margin-top: 36px; width: 60%%; }
  .sign-line { border-bottom: 1px solid #000; height: 48px; position: relative; }
  .sign-img { position: absolute; bottom: -10px; left: 20px; max-height: 64px; }
  .sign-caption { font-size: 10px; color: #555; margin-top: 2px; }
</style>
</head>
<body>
%s
</body>
</html>`
