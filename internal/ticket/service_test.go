package ticket_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/solatech/solar-commerce/internal"
	ticketdm "github.com/solatech/solar-commerce/internal/core/datamodel/ticket"
	ticketPkg "github.com/solatech/solar-commerce/internal/ticket"
)

type mockTicketRepository struct {
	tickets      map[int64]*ticketdm.SupportTicket
	nextID       int64
	createError  error
	respondError error
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{tickets: make(map[int64]*ticketdm.SupportTicket), nextID: 1}
}

func (m *mockTicketRepository) Create(t *ticketdm.SupportTicket) error {
	if m.createError != nil {
		return m.createError
	}
	t.ID = m.nextID
	m.nextID++
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.tickets[t.ID] = t
	return nil
}

func (m *mockTicketRepository) GetByID(id int64) (*ticketdm.SupportTicket, error) {
	t, exists := m.tickets[id]
	if !exists {
		return nil, apperrors.ErrTicketNotFound
	}
	return t, nil
}

func (m *mockTicketRepository) GetByUserID(userID int64, limit, offset int) ([]*ticketdm.SupportTicket, error) {
	var out []*ticketdm.SupportTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepository) GetAll(status string, limit, offset int) ([]*ticketdm.SupportTicket, error) {
	var out []*ticketdm.SupportTicket
	for _, t := range m.tickets {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTicketRepository) Respond(id int64, response, status string) error {
	if m.respondError != nil {
		return m.respondError
	}
	t, exists := m.tickets[id]
	if !exists {
		return apperrors.ErrTicketNotFound
	}
	t.Response = &response
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

var _ = Describe("TicketService", func() {
	var (
		service  *ticketPkg.Service
		mockRepo *mockTicketRepository
	)

	BeforeEach(func() {
		mockRepo = newMockTicketRepository()
		service = ticketPkg.NewService(mockRepo)
	})

	Describe("Create", func() {
		It("should open a ticket for the user", func() {
			t, err := service.Create(42, &ticketPkg.CreateTicketRequest{
				Subject: "Inverter not charging",
				Message: "The inverter stopped charging after the last storm.",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(t.ID).To(Equal(int64(1)))
			Expect(t.UserID).To(Equal(int64(42)))
			Expect(t.Status).To(Equal(ticketdm.StatusOpen))
			Expect(t.Response).To(BeNil())
		})

		It("should reject a ticket without a subject", func() {
			_, err := service.Create(42, &ticketPkg.CreateTicketRequest{Message: "help"})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.tickets).To(BeEmpty())
		})

		It("should reject a ticket without a message", func() {
			_, err := service.Create(42, &ticketPkg.CreateTicketRequest{Subject: "help"})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.tickets).To(BeEmpty())
		})
	})

	Describe("GetTicket", func() {
		var ticketID int64

		BeforeEach(func() {
			t, err := service.Create(42, &ticketPkg.CreateTicketRequest{
				Subject: "Battery swap",
				Message: "Can I exchange my battery under warranty?",
			})
			Expect(err).ToNot(HaveOccurred())
			ticketID = t.ID
		})

		It("should return the ticket to its owner", func() {
			t, err := service.GetTicket(ticketID, 42, false)

			Expect(err).ToNot(HaveOccurred())
			Expect(t.Subject).To(Equal("Battery swap"))
		})

		It("should refuse another customer's ticket", func() {
			_, err := service.GetTicket(ticketID, 7, false)

			Expect(err).To(MatchError(apperrors.ErrUnauthorizedAccess))
		})

		It("should let an admin read any ticket", func() {
			t, err := service.GetTicket(ticketID, 999, true)

			Expect(err).ToNot(HaveOccurred())
			Expect(t.ID).To(Equal(ticketID))
		})

		It("should report a missing ticket", func() {
			_, err := service.GetTicket(12345, 42, true)

			Expect(err).To(MatchError(apperrors.ErrTicketNotFound))
		})
	})

	Describe("ListAll", func() {
		BeforeEach(func() {
			_, err := service.Create(42, &ticketPkg.CreateTicketRequest{Subject: "a", Message: "first"})
			Expect(err).ToNot(HaveOccurred())
			t, err := service.Create(7, &ticketPkg.CreateTicketRequest{Subject: "b", Message: "second"})
			Expect(err).ToNot(HaveOccurred())
			_, err = service.Respond(t.ID, &ticketPkg.RespondRequest{Response: "done"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should return every ticket when no status filter is given", func() {
			tickets, err := service.ListAll("", 0, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(tickets).To(HaveLen(2))
		})

		It("should filter by status", func() {
			tickets, err := service.ListAll(ticketdm.StatusOpen, 0, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(tickets).To(HaveLen(1))
			Expect(tickets[0].Subject).To(Equal("a"))
		})

		It("should reject an unknown status", func() {
			_, err := service.ListAll("escalated", 0, 0)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Respond", func() {
		var ticketID int64

		BeforeEach(func() {
			t, err := service.Create(42, &ticketPkg.CreateTicketRequest{
				Subject: "Panel output low",
				Message: "My 50W panel reads 12W at noon.",
			})
			Expect(err).ToNot(HaveOccurred())
			ticketID = t.ID
		})

		It("should record the reply and close the ticket by default", func() {
			t, err := service.Respond(ticketID, &ticketPkg.RespondRequest{
				Response: "Clean the panel surface and retest.",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(*t.Response).To(Equal("Clean the panel surface and retest."))
			Expect(t.Status).To(Equal(ticketdm.StatusClosed))
		})

		It("should honour an explicit responded status", func() {
			t, err := service.Respond(ticketID, &ticketPkg.RespondRequest{
				Response: "Checking with the manufacturer.",
				Status:   ticketdm.StatusResponded,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(t.Status).To(Equal(ticketdm.StatusResponded))
		})

		It("should reject an empty reply", func() {
			_, err := service.Respond(ticketID, &ticketPkg.RespondRequest{})

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.tickets[ticketID].Status).To(Equal(ticketdm.StatusOpen))
		})

		It("should reject a status outside the lifecycle", func() {
			_, err := service.Respond(ticketID, &ticketPkg.RespondRequest{
				Response: "reply",
				Status:   "reopened",
			})

			Expect(err).To(HaveOccurred())
		})

		It("should report a missing ticket", func() {
			_, err := service.Respond(999, &ticketPkg.RespondRequest{Response: "reply"})

			Expect(err).To(MatchError(apperrors.ErrTicketNotFound))
		})
	})
})
