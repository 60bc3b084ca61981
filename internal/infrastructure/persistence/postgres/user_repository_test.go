package postgres_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rafabene/avantpro-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/domain/valueobjects"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/logging"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/persistence/postgres"
)

var dbSeq int

func newUser(username string) *entities.User {
	return &entities.User{
		Username:     username,
		PasswordHash: "hash",
		IsActive:     true,
	}
}

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		db   *gorm.DB
		repo repositories.UserRepository
		uow  ports.UnitOfWork
	)

	BeforeEach(func() {
		ctx = context.Background()
		log := logging.NewNopLogger()

		var err error
		dbSeq++
		dsn := fmt.Sprintf("file:repo_%d?mode=memory&cache=shared", dbSeq)
		db, err = gorm.Open(sqlite.Open(dsn), postgres.NewGormConfig(log))
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		Expect(postgres.Migrate(db, log)).To(Succeed())

		repo = postgres.NewUserRepository(db)
		uow = postgres.NewUnitOfWork(db)
	})

	It("usa a tabela user", func() {
		Expect(postgres.UserModel{}.TableName()).To(Equal("user"))
		Expect(db.Migrator().HasTable("user")).To(BeTrue())
		Expect(db.Migrator().HasColumn(&postgres.UserModel{}, "image")).To(BeTrue())
	})

	It("cria e busca um usuário sem imagem", func() {
		user := newUser("alice")
		Expect(repo.Create(ctx, user)).To(Succeed())
		Expect(user.ID).NotTo(BeZero())
		Expect(user.DateJoined.IsZero()).To(BeFalse())

		found, err := repo.FindByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).NotTo(BeNil())
		Expect(found.String()).To(Equal("alice"))
		Expect(found.Image).To(BeNil())
		Expect(found.IsActive).To(BeTrue())
	})

	It("retorna nil quando não encontra", func() {
		found, err := repo.FindByUsername(ctx, "ghost")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeNil())
	})

	It("rejeita username duplicado", func() {
		Expect(repo.Create(ctx, newUser("alice"))).To(Succeed())
		err := repo.Create(ctx, newUser("alice"))
		Expect(err).To(MatchError(domainerrors.ErrUsernameAlreadyExists))
	})

	It("define e limpa a imagem", func() {
		user := newUser("alice")
		Expect(repo.Create(ctx, user)).To(Succeed())

		user.SetImage("user_image/a.png")
		Expect(repo.Update(ctx, user)).To(Succeed())

		found, err := repo.FindByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Image).To(HaveValue(Equal("user_image/a.png")))

		found.ClearImage()
		Expect(repo.Update(ctx, found)).To(Succeed())

		found, err = repo.FindByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found.Image).To(BeNil())
	})

	It("grava flags falsas no update", func() {
		user := newUser("alice")
		user.IsStaff = true
		Expect(repo.Create(ctx, user)).To(Succeed())

		user.IsStaff = false
		user.IsActive = false
		Expect(repo.Update(ctx, user)).To(Succeed())

		found, err := repo.FindByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found.IsStaff).To(BeFalse())
		Expect(found.IsActive).To(BeFalse())
	})

	It("retorna ErrUserNotFound ao atualizar ou remover inexistente", func() {
		ghost := newUser("ghost")
		ghost.ID = 999
		Expect(repo.Update(ctx, ghost)).To(MatchError(domainerrors.ErrUserNotFound))
		Expect(repo.Delete(ctx, 999)).To(MatchError(domainerrors.ErrUserNotFound))
	})

	It("remove usuários definitivamente", func() {
		user := newUser("alice")
		Expect(repo.Create(ctx, user)).To(Succeed())
		Expect(repo.Delete(ctx, user.ID)).To(Succeed())

		found, err := repo.FindByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeNil())
	})

	It("busca por email preservando a parte local", func() {
		user := newUser("alice")
		email, err := valueobjects.NewEmail("Alice@EXAMPLE.com")
		Expect(err).NotTo(HaveOccurred())
		user.Email = email
		Expect(repo.Create(ctx, user)).To(Succeed())

		found, err := repo.FindByEmail(ctx, "Alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).NotTo(BeNil())
		Expect(found.Username).To(Equal("alice"))
		Expect(found.Email.String()).To(Equal("Alice@example.com"))
	})

	Describe("List e Count", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				u := newUser(fmt.Sprintf("user%d", i))
				u.IsStaff = i%2 == 0
				Expect(repo.Create(ctx, u)).To(Succeed())
			}
		})

		It("pagina os resultados", func() {
			users, err := repo.List(ctx, repositories.UserFilters{Page: 2, PageSize: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].Username).To(Equal("user2"))
		})

		It("filtra por staff", func() {
			staff := true
			filters := repositories.UserFilters{IsStaff: &staff}

			users, err := repo.List(ctx, filters)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(3))

			total, err := repo.Count(ctx, filters)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(3))
		})

		It("busca por trecho do username", func() {
			users, err := repo.List(ctx, repositories.UserFilters{Search: "USER3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].String()).To(Equal("user3"))
		})

		It("trata curingas da busca como texto", func() {
			Expect(repo.Create(ctx, newUser("user_x"))).To(Succeed())
			Expect(repo.Create(ctx, newUser("carol%"))).To(Succeed())

			for search, expected := range map[string][]string{
				"_":  {"user_x"},
				"r_": {"user_x"},
				"%":  {"carol%"},
				"\\": {},
			} {
				users, err := repo.List(ctx, repositories.UserFilters{Search: search})
				Expect(err).NotTo(HaveOccurred())

				names := make([]string, 0, len(users))
				for _, u := range users {
					names = append(names, u.Username)
				}
				Expect(names).To(ConsistOf(expected), "search %q", search)
			}
		})
	})

	Describe("UnitOfWork", func() {
		It("desfaz alterações quando a função falha", func() {
			err := uow.WithTransaction(ctx, func(txCtx context.Context) error {
				Expect(repo.Create(txCtx, newUser("alice"))).To(Succeed())
				return domainerrors.ErrInvalidImage
			})
			Expect(err).To(MatchError(domainerrors.ErrInvalidImage))

			found, err := repo.FindByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})

		It("confirma alterações quando a função tem sucesso", func() {
			err := uow.WithTransaction(ctx, func(txCtx context.Context) error {
				return repo.Create(txCtx, newUser("alice"))
			})
			Expect(err).NotTo(HaveOccurred())

			found, err := repo.FindByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
		})

		It("indica quando o contexto carrega uma transação", func() {
			Expect(uow.InTransaction(ctx)).To(BeFalse())

			err := uow.WithTransaction(ctx, func(txCtx context.Context) error {
				Expect(uow.InTransaction(txCtx)).To(BeTrue())
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("executa AfterCommit somente após o commit", func() {
			var calls []string

			err := uow.WithTransaction(ctx, func(txCtx context.Context) error {
				uow.AfterCommit(txCtx, func(context.Context) { calls = append(calls, "hook") })
				Expect(repo.Create(txCtx, newUser("alice"))).To(Succeed())
				calls = append(calls, "fn")
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal([]string{"fn", "hook"}))
		})

		It("descarta AfterCommit no rollback", func() {
			called := false

			err := uow.WithTransaction(ctx, func(txCtx context.Context) error {
				uow.AfterCommit(txCtx, func(context.Context) { called = true })
				return domainerrors.ErrInvalidImage
			})
			Expect(err).To(MatchError(domainerrors.ErrInvalidImage))
			Expect(called).To(BeFalse())
		})

		It("executa AfterCommit na hora fora de transação", func() {
			called := false
			uow.AfterCommit(ctx, func(context.Context) { called = true })
			Expect(called).To(BeTrue())
		})
	})

	It("não sobrescreve a senha em Update", func() {
		user := newUser("alice")
		Expect(repo.Create(ctx, user)).To(Succeed())

		user.PasswordHash = ""
		user.FirstName = "Alice"
		Expect(repo.Update(ctx, user)).To(Succeed())

		var model postgres.UserModel
		Expect(db.First(&model, user.ID).Error).To(Succeed())
		Expect(model.Password).To(Equal("hash"))
		Expect(model.FirstName).To(Equal("Alice"))
	})
})
