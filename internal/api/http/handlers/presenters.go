package handlers

import (
	"github.com/cleantrack/cleantrack-api/internal/api/dto"
	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/service"
)

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		RoomNumber: user.RoomNumber,
		Floor:      user.Floor,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
	}
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           ticket.ID,
		StudentEmail: ticket.StudentEmail,
		RoomNumber:   ticket.RoomNumber,
		Floor:        ticket.Floor,
		Title:        ticket.Title,
		Description:  ticket.Description,
		Status:       ticket.Status,
		PhotoURL:     ticket.PhotoURL,
		AIConfidence: ticket.AIConfidence,
		CreatedAt:    ticket.CreatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

func roomResponse(room *domain.Room) dto.RoomResponse {
	return dto.RoomResponse{
		ID:          room.ID,
		RoomNumber:  room.RoomNumber,
		Floor:       room.Floor,
		LastCleaned: room.LastCleaned,
		Caretaker:   room.Caretaker,
		Janitors:    room.Janitors,
	}
}

func ratingResponses(ratings []*domain.Rating) []dto.RatingResponse {
	items := make([]dto.RatingResponse, 0, len(ratings))
	for _, r := range ratings {
		items = append(items, dto.RatingResponse{
			ID:          r.ID,
			Floor:       r.Floor,
			JanitorType: r.JanitorType,
			Rating:      r.Rating,
			CreatedAt:   r.CreatedAt,
		})
	}
	return items
}

func staffRatingResponses(rows []service.StaffRating) []dto.StaffRatingResponse {
	items := make([]dto.StaffRatingResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.StaffRatingResponse{
			Floor:         row.Floor,
			JanitorType:   row.JanitorType,
			JanitorName:   row.JanitorName,
			AverageRating: row.AverageRating,
			TotalRatings:  row.TotalRatings,
		})
	}
	return items
}

func announcementResponse(a *domain.Announcement) dto.AnnouncementResponse {
	return dto.AnnouncementResponse{
		ID:             a.ID,
		Title:          a.Title,
		Content:        a.Content,
		PostedBy:       a.PostedBy,
		PostedByName:   a.PostedByName,
		Priority:       a.Priority,
		TargetAudience: a.TargetAudience,
		CreatedAt:      a.CreatedAt,
	}
}

func announcementResponses(list []domain.Announcement) []dto.AnnouncementResponse {
	items := make([]dto.AnnouncementResponse, 0, len(list))
	for i := range list {
		items = append(items, announcementResponse(&list[i]))
	}
	return items
}
