package postgres_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rafabene/avantpro-accounts/internal/infrastructure/logging"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/persistence/postgres"
)

var _ = Describe("GormLogger", func() {
	var (
		buf bytes.Buffer
		gl  logger.Interface
	)

	query := func() (string, int64) { return `SELECT * FROM "user"`, 1 }

	BeforeEach(func() {
		buf.Reset()
		gl = postgres.NewGormLogger(logging.NewSlogLoggerWithWriter("debug", &buf), 50*time.Millisecond)
	})

	It("loga queries com erro", func() {
		gl.Trace(context.Background(), time.Now(), query, errors.New("boom"))

		Expect(buf.String()).To(ContainSubstring("query failed"))
		Expect(buf.String()).To(ContainSubstring(`"component":"gorm"`))
	})

	It("ignora record not found", func() {
		gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)

		Expect(buf.Len()).To(BeZero())
	})

	It("avisa sobre queries lentas", func() {
		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

		Expect(buf.String()).To(ContainSubstring("slow query"))
	})

	It("respeita o modo silencioso", func() {
		gl.LogMode(logger.Silent).Trace(context.Background(), time.Now(), query, errors.New("boom"))

		Expect(buf.Len()).To(BeZero())
	})
})
