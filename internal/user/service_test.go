package user_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/solatech/solar-commerce/internal"
	userdm "github.com/solatech/solar-commerce/internal/core/datamodel/user"
	userPkg "github.com/solatech/solar-commerce/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Module Suite")
}

type mockUserRepository struct {
	users  map[int64]*userdm.User
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*userdm.User), nextID: 1}
}

func (m *mockUserRepository) Create(u *userdm.User) error {
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByID(userID int64) (*userdm.User, error) {
	u, exists := m.users[userID]
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*userdm.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *mockUserRepository) EmailExists(email string) (bool, error) {
	_, err := m.GetByEmail(email)
	return err == nil, nil
}

func (m *mockUserRepository) GetAll(limit, offset int) ([]*userdm.User, error) {
	var out []*userdm.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepository) SetApproval(userID int64, approved bool) error {
	u, exists := m.users[userID]
	if !exists {
		return apperrors.ErrUserNotFound
	}
	u.IsApproved = approved
	return nil
}

func (m *mockUserRepository) Update(userID int64, fields map[string]interface{}) error {
	u, exists := m.users[userID]
	if !exists {
		return apperrors.ErrUserNotFound
	}
	if role, ok := fields["role"].(string); ok {
		u.Role = role
	}
	if approved, ok := fields["is_approved"].(bool); ok {
		u.IsApproved = approved
	}
	if active, ok := fields["is_active"].(bool); ok {
		u.IsActive = active
	}
	return nil
}

func (m *mockUserRepository) Delete(userID int64) error {
	delete(m.users, userID)
	return nil
}

var _ = Describe("UserService", func() {
	var (
		service  *userPkg.Service
		mockRepo *mockUserRepository
	)

	register := func(email, role string) *userdm.User {
		u, err := service.Register(&userPkg.RegisterRequest{
			Email:     email,
			Password:  "correct-horse",
			FirstName: "Asha",
			LastName:  "Odhiambo",
			Role:      role,
		})
		Expect(err).ToNot(HaveOccurred())
		return u
	}

	BeforeEach(func() {
		mockRepo = newMockUserRepository()
		service = userPkg.NewService(mockRepo)
	})

	Describe("Register", func() {
		It("should approve customers immediately", func() {
			u := register("asha@example.com", "")

			Expect(u.Role).To(Equal(userdm.RoleCustomer))
			Expect(u.IsApproved).To(BeTrue())
			Expect(u.IsActive).To(BeTrue())
		})

		It("should leave providers unapproved", func() {
			u := register("shop@example.com", userdm.RoleProvider)

			Expect(u.IsApproved).To(BeFalse())
		})

		It("should reject a duplicate email", func() {
			register("asha@example.com", "")

			_, err := service.Register(&userPkg.RegisterRequest{
				Email:     "asha@example.com",
				Password:  "correct-horse",
				FirstName: "Asha",
				LastName:  "Odhiambo",
			})

			Expect(err).To(MatchError(apperrors.ErrEmailExists))
		})
	})

	Describe("ApproveProvider", func() {
		It("should approve a provider account", func() {
			u := register("shop@example.com", userdm.RoleProvider)

			Expect(service.ApproveProvider(u.ID)).To(Succeed())
			Expect(mockRepo.users[u.ID].IsApproved).To(BeTrue())
		})

		It("should refuse non-provider accounts", func() {
			u := register("asha@example.com", "")

			err := service.ApproveProvider(u.ID)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListUsers", func() {
		It("should return every account", func() {
			register("asha@example.com", "")
			register("shop@example.com", userdm.RoleProvider)

			users, err := service.ListUsers(0, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(users).To(HaveLen(2))
		})
	})

	Describe("UpdateUser", func() {
		It("should change only the fields present in the request", func() {
			u := register("asha@example.com", "")
			role := userdm.RoleProvider

			updated, err := service.UpdateUser(u.ID, &userPkg.AdminUpdateUserRequest{Role: &role})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Role).To(Equal(userdm.RoleProvider))
			Expect(updated.IsActive).To(BeTrue())
		})

		It("should toggle approval", func() {
			u := register("shop@example.com", userdm.RoleProvider)
			approved := true

			updated, err := service.UpdateUser(u.ID, &userPkg.AdminUpdateUserRequest{IsApproved: &approved})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.IsApproved).To(BeTrue())
		})

		It("should reject an unknown role", func() {
			u := register("asha@example.com", "")
			role := "superuser"

			_, err := service.UpdateUser(u.ID, &userPkg.AdminUpdateUserRequest{Role: &role})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.users[u.ID].Role).To(Equal(userdm.RoleCustomer))
		})

		It("should report a missing account", func() {
			role := userdm.RoleAdmin

			_, err := service.UpdateUser(999, &userPkg.AdminUpdateUserRequest{Role: &role})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeleteUser", func() {
		It("should remove the account", func() {
			u := register("asha@example.com", "")

			Expect(service.DeleteUser(u.ID)).To(Succeed())
			Expect(mockRepo.users).To(BeEmpty())
		})

		It("should report a missing account", func() {
			err := service.DeleteUser(999)

			Expect(err).To(HaveOccurred())
		})
	})
})
