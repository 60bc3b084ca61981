package ports

import (
	"context"
	"io"
)

// ImageStorage guarda os arquivos de imagem referenciados pelos usuários.
// Os nomes retornados são relativos à raiz de mídia (ex: "user_image/3f2a.png").
type ImageStorage interface {
	Save(ctx context.Context, uploadTo, filename string, content io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}
