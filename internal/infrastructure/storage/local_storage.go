package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
)

// bytes lidos para detectar o tipo do conteúdo
const sniffLen = 3072

// limite de pixels aceito antes de decodificar (mesma ordem de grandeza do Pillow)
const maxImagePixels = 89_478_485

// formatos raster aceitos, pelo MIME detectado, e o nome do decoder registrado em image
var allowedFormats = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// LocalStorage implementa ports.ImageStorage no sistema de arquivos local
type LocalStorage struct {
	root     string
	baseURL  string
	maxBytes int64
}

// NewLocalStorage cria o storage; root é criado se não existir.
// maxBytes <= 0 desabilita o limite de tamanho.
func NewLocalStorage(root, baseURL string, maxBytes int64) (ports.ImageStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root %s: %w", root, err)
	}
	return &LocalStorage{root: root, baseURL: baseURL, maxBytes: maxBytes}, nil
}

// Save grava o conteúdo em <root>/<uploadTo>/<uuid><ext> e retorna o nome relativo.
// Só JPEG, PNG, GIF e WebP que decodificam por completo são aceitos; o resto
// retorna ErrInvalidImage.
func (s *LocalStorage) Save(ctx context.Context, uploadTo, _ string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(content, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]
	if n == 0 {
		return "", domainerrors.ErrInvalidImage
	}

	mime := mimetype.Detect(header)
	format, ok := allowedFormats[mime.String()]
	if !ok {
		return "", domainerrors.ErrInvalidImage
	}

	name := path.Join(uploadTo, uuid.NewString()+mime.Extension())
	dst, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	reader := io.MultiReader(bytes.NewReader(header), content)
	if s.maxBytes > 0 {
		reader = io.LimitReader(reader, s.maxBytes+1)
	}

	written, err := io.Copy(tmp, reader)
	if err == nil && s.maxBytes > 0 && written > s.maxBytes {
		err = domainerrors.ErrImageTooLarge
	}
	if err == nil {
		err = verifyImage(tmp, format)
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to write upload: %w", closeErr)
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrImageTooLarge) || errors.Is(err, domainerrors.ErrInvalidImage) {
			return "", err
		}
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	return name, nil
}

// verifyImage decodifica o arquivo inteiro e confere que o formato bate com o detectado
func verifyImage(f *os.File, format string) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	cfg, decoded, err := image.DecodeConfig(f)
	if err != nil || decoded != format {
		return domainerrors.ErrInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return domainerrors.ErrInvalidImage
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, _, err := image.Decode(f); err != nil {
		return domainerrors.ErrInvalidImage
	}
	return nil
}

// Delete remove o arquivo; arquivos inexistentes não são erro
func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// URL retorna o endereço público do arquivo
func (s *LocalStorage) URL(name string) string {
	return strings.TrimSuffix(s.baseURL, "/") + "/" + strings.TrimPrefix(name, "/")
}

// resolve converte o nome relativo em caminho dentro de root
func (s *LocalStorage) resolve(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" {
		return "", domainerrors.ErrInvalidImage
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
