package core

import (
	"context"
	"fmt"

	"github.com/workchat/internal/model"
)

// UserStats — временные ряды активности пользователя и его доля участия.
type UserStats struct {
	ChannelsJoined  []model.StatPoint `json:"channels_joined"`
	DMsJoined       []model.StatPoint `json:"dms_joined"`
	MessagesSent    []model.StatPoint `json:"messages_sent"`
	InvolvementRate float64           `json:"involvement_rate"`
}

// WorkspaceStats — временные ряды воркспейса и доля вовлечённых
// пользователей.
type WorkspaceStats struct {
	ChannelsExist   []model.StatPoint `json:"channels_exist"`
	DMsExist        []model.StatPoint `json:"dms_exist"`
	MessagesExist   []model.StatPoint `json:"messages_exist"`
	UtilizationRate float64           `json:"utilization_rate"`
}

// bumpSeries дописывает в ряд новую точку со значением последней плюс delta.
// Ряды только растут, прошлые точки не переписываются.
func bumpSeries(series []model.StatPoint, delta int, at int64) []model.StatPoint {
	last := 0
	if len(series) > 0 {
		last = series[len(series)-1].Count
	}
	return append(series, model.StatPoint{Count: last + delta, At: at})
}

func seriesLast(series []model.StatPoint) int {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Count
}

// UserStatsFor считает статистику пользователя. Доля участия — сумма его
// текущих счётчиков к сумме счётчиков воркспейса, с отсечкой сверху на 1:
// удалённые сообщения уменьшают знаменатель, но не числитель.
func (s *Service) UserStatsFor(ctx context.Context, userID int64) (UserStats, error) {
	u, err := s.store.User(ctx, userID)
	if err != nil {
		return UserStats{}, fmt.Errorf("core.UserStatsFor: %w", err)
	}
	w, err := s.store.Workspace(ctx)
	if err != nil {
		return UserStats{}, fmt.Errorf("core.UserStatsFor: %w", err)
	}

	num := seriesLast(u.ChannelsJoined) + seriesLast(u.DMsJoined) + seriesLast(u.MessagesSent)
	den := seriesLast(w.ChannelsExist) + seriesLast(w.DMsExist) + seriesLast(w.MessagesExist)
	rate := 0.0
	if den > 0 {
		rate = float64(num) / float64(den)
		if rate > 1 {
			rate = 1
		}
	}
	return UserStats{
		ChannelsJoined:  u.ChannelsJoined,
		DMsJoined:       u.DMsJoined,
		MessagesSent:    u.MessagesSent,
		InvolvementRate: rate,
	}, nil
}

// WorkspaceStatsFor считает статистику воркспейса. Доля вовлечённых — число
// неудалённых пользователей хотя бы в одной беседе к числу всех неудалённых.
func (s *Service) WorkspaceStatsFor(ctx context.Context) (WorkspaceStats, error) {
	w, err := s.store.Workspace(ctx)
	if err != nil {
		return WorkspaceStats{}, fmt.Errorf("core.WorkspaceStatsFor: %w", err)
	}
	users, err := s.store.Users(ctx)
	if err != nil {
		return WorkspaceStats{}, fmt.Errorf("core.WorkspaceStatsFor: %w", err)
	}
	convs, err := s.store.Conversations(ctx)
	if err != nil {
		return WorkspaceStats{}, fmt.Errorf("core.WorkspaceStatsFor: %w", err)
	}

	involved := make(map[int64]bool)
	for _, c := range convs {
		for _, id := range c.MemberIDs {
			involved[id] = true
		}
	}
	active, joined := 0, 0
	for _, u := range users {
		if u.Removed {
			continue
		}
		active++
		if involved[u.ID] {
			joined++
		}
	}
	rate := 0.0
	if active > 0 {
		rate = float64(joined) / float64(active)
	}
	return WorkspaceStats{
		ChannelsExist:   w.ChannelsExist,
		DMsExist:        w.DMsExist,
		MessagesExist:   w.MessagesExist,
		UtilizationRate: rate,
	}, nil
}

func (s *Service) bumpWorkspace(ctx context.Context, fn func(*model.Workspace)) error {
	return s.store.UpdateWorkspace(ctx, func(w *model.Workspace) error {
		fn(w)
		return nil
	})
}
