package services_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	domainerrors "github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/logging"
	"github.com/rafabene/avantpro-accounts/internal/services"
)

var _ = Describe("UserService", func() {
	var (
		ctx     context.Context
		repo    *fakeUserRepository
		storage *fakeImageStorage
		service *services.UserService
	)

	validInput := func(username string) services.CreateUserInput {
		return services.CreateUserInput{
			Username: username,
			Email:    username + "@example.com",
			Password: "s3cret-password",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newFakeUserRepository()
		storage = newFakeImageStorage()
		service = services.NewUserService(repo, fakeUnitOfWork{}, storage, logging.NewNopLogger())
	})

	Describe("CreateUser", func() {
		It("cria usuário ativo sem imagem com senha em hash", func() {
			user, err := service.CreateUser(ctx, validInput("alice"))
			Expect(err).NotTo(HaveOccurred())

			Expect(user.ID).NotTo(BeZero())
			Expect(user.String()).To(Equal("alice"))
			Expect(user.IsActive).To(BeTrue())
			Expect(user.Image).To(BeNil())
			Expect(user.DateJoined.IsZero()).To(BeFalse())
			Expect(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-password"))).To(Succeed())
		})

		It("aceita email em branco", func() {
			input := validInput("bob")
			input.Email = ""
			user, err := service.CreateUser(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email.IsEmpty()).To(BeTrue())
		})

		It("rejeita username duplicado", func() {
			_, err := service.CreateUser(ctx, validInput("alice"))
			Expect(err).NotTo(HaveOccurred())

			input := validInput("alice")
			input.Email = "other@example.com"
			_, err = service.CreateUser(ctx, input)
			Expect(err).To(MatchError(domainerrors.ErrUsernameAlreadyExists))
		})

		It("permite que usuários compartilhem o mesmo email", func() {
			first := validInput("alice")
			first.Email = "team@example.com"
			_, err := service.CreateUser(ctx, first)
			Expect(err).NotTo(HaveOccurred())

			second := validInput("bob")
			second.Email = "team@example.com"
			bob, err := service.CreateUser(ctx, second)
			Expect(err).NotTo(HaveOccurred())
			Expect(bob.Email.String()).To(Equal("team@example.com"))
		})

		DescribeTable("rejeita entradas inválidas",
			func(mutate func(*services.CreateUserInput), expected error) {
				input := validInput("carol")
				mutate(&input)
				_, err := service.CreateUser(ctx, input)
				Expect(err).To(MatchError(expected))
			},
			Entry("username com espaço", func(in *services.CreateUserInput) { in.Username = "car ol" }, domainerrors.ErrInvalidUsername),
			Entry("email inválido", func(in *services.CreateUserInput) { in.Email = "carol@" }, domainerrors.ErrInvalidEmail),
			Entry("senha curta", func(in *services.CreateUserInput) { in.Password = "short" }, domainerrors.ErrInvalidPassword),
			Entry("senha longa", func(in *services.CreateUserInput) { in.Password = strings.Repeat("x", 73) }, domainerrors.ErrInvalidPassword),
			Entry("first_name longo", func(in *services.CreateUserInput) { in.FirstName = strings.Repeat("a", 151) }, domainerrors.ErrInvalidName),
		)
	})

	Describe("GetUser", func() {
		It("retorna ErrUserNotFound para id inexistente", func() {
			_, err := service.GetUser(ctx, 42)
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
		})
	})

	Describe("UpdateUser", func() {
		It("altera apenas os campos informados", func() {
			user, err := service.CreateUser(ctx, validInput("alice"))
			Expect(err).NotTo(HaveOccurred())

			first := "Alice"
			inactive := false
			updated, err := service.UpdateUser(ctx, user.ID, services.UpdateUserInput{FirstName: &first, IsActive: &inactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.FirstName).To(Equal("Alice"))
			Expect(updated.IsActive).To(BeFalse())
			Expect(updated.Username).To(Equal("alice"))
		})

		It("rejeita renomear para username existente", func() {
			_, err := service.CreateUser(ctx, validInput("alice"))
			Expect(err).NotTo(HaveOccurred())
			bob, err := service.CreateUser(ctx, validInput("bob"))
			Expect(err).NotTo(HaveOccurred())

			name := "alice"
			_, err = service.UpdateUser(ctx, bob.ID, services.UpdateUserInput{Username: &name})
			Expect(err).To(MatchError(domainerrors.ErrUsernameAlreadyExists))
		})

		It("permite manter o próprio username", func() {
			user, err := service.CreateUser(ctx, validInput("alice"))
			Expect(err).NotTo(HaveOccurred())

			name := "alice"
			_, err = service.UpdateUser(ctx, user.ID, services.UpdateUserInput{Username: &name})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("imagem", func() {
		var userID uint

		BeforeEach(func() {
			user, err := service.CreateUser(ctx, validInput("alice"))
			Expect(err).NotTo(HaveOccurred())
			userID = user.ID
		})

		It("define imagem e expõe a URL", func() {
			user, err := service.SetUserImage(ctx, userID, "a.png", strings.NewReader("png-bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Image).To(HaveValue(Equal("user_image/img1.png")))
			Expect(service.ImageURL(user)).To(HaveValue(Equal("/media/user_image/img1.png")))

			stored, err := service.GetUser(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Image).To(HaveValue(Equal("user_image/img1.png")))
		})

		It("remove o arquivo anterior ao substituir", func() {
			_, err := service.SetUserImage(ctx, userID, "a.png", strings.NewReader("one"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.SetUserImage(ctx, userID, "b.png", strings.NewReader("two"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.deleted).To(ConsistOf("user_image/img1.png"))
			Expect(storage.files).To(HaveKey("user_image/img2.png"))
		})

		It("propaga erro do storage sem alterar o usuário", func() {
			storage.saveErr = domainerrors.ErrInvalidImage
			_, err := service.SetUserImage(ctx, userID, "a.txt", strings.NewReader("text"))
			Expect(err).To(MatchError(domainerrors.ErrInvalidImage))

			stored, err := service.GetUser(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Image).To(BeNil())
		})

		It("limpa a imagem e remove o arquivo", func() {
			_, err := service.SetUserImage(ctx, userID, "a.png", strings.NewReader("one"))
			Expect(err).NotTo(HaveOccurred())

			user, err := service.ClearUserImage(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Image).To(BeNil())
			Expect(service.ImageURL(user)).To(BeNil())
			Expect(storage.files).To(BeEmpty())
		})

		It("limpar sem imagem não é erro", func() {
			user, err := service.ClearUserImage(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Image).To(BeNil())
			Expect(storage.deleted).To(BeEmpty())
		})

		It("remove a imagem ao excluir o usuário", func() {
			_, err := service.SetUserImage(ctx, userID, "a.png", strings.NewReader("one"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteUser(ctx, userID)).To(Succeed())
			Expect(storage.files).To(BeEmpty())

			_, err = service.GetUser(ctx, userID)
			Expect(err).To(MatchError(domainerrors.ErrUserNotFound))
		})
	})

	Describe("ListUsers", func() {
		It("retorna a página e o total", func() {
			for _, name := range []string{"a1", "a2", "a3"} {
				_, err := service.CreateUser(ctx, validInput(name))
				Expect(err).NotTo(HaveOccurred())
			}

			users, total, err := service.ListUsers(ctx, repositories.UserFilters{Page: 1, PageSize: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(total).To(BeEquivalentTo(3))
		})
	})
})
