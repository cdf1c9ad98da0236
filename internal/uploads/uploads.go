package uploads

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/taksyapp/tasks-api/internal"
)

const otelName = "github.com/taksyapp/tasks-api/internal/uploads"

//MaxDocuments caps how many files a single request may attach.
const MaxDocuments = 3

//Store persists uploaded task documents on disk and serves them back.
type Store struct {
	dir string
}

//NewStore instantiates the Store, creating the directory when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.MkdirAll")
	}

	return &Store{
		dir: dir,
	}, nil
}

//Save writes the received files to disk under random names and returns their stored
//references. Any failure aborts the whole batch.
func (s *Store) Save(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	defer newOTELSpan(ctx, "Store.Save").End()

	if len(files) > MaxDocuments {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "at most %d documents per request", MaxDocuments)
	}

	res := make([]string, 0, len(files))

	for _, fh := range files {
		name := fmt.Sprintf("%s%s", uuid.NewString(), strings.ToLower(filepath.Ext(fh.Filename)))

		if err := s.save(fh, name); err != nil {
			return nil, err
		}

		res = append(res, path.Join("uploads", name))
	}

	return res, nil
}

func (s *Store) save(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "fh.Open")
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "os.Create")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "io.Copy")
	}

	return nil
}

//Handler serves stored documents. PDFs get an explicit content type and an inline
//disposition so browsers render them instead of downloading.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Base strips any traversal attempt, stored names are flat.
		name := filepath.Base(path.Clean(r.URL.Path))
		if name == "." || name == "/" {
			http.NotFound(w, r)
			return
		}

		if strings.EqualFold(filepath.Ext(name), ".pdf") {
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", `inline; filename="document.pdf"`)
		}

		http.ServeFile(w, r, filepath.Join(s.dir, name))
	})
}

func newOTELSpan(ctx context.Context, name string) trace.Span {
	_, span := otel.Tracer(otelName).Start(ctx, name)

	return span
}
