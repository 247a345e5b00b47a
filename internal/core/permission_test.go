package core

import (
	"testing"

	"github.com/workchat/internal/model"
)

func TestCanMutateMessage(t *testing.T) {
	channel := &model.Conversation{
		Kind:      model.KindChannel,
		MemberIDs: []int64{1, 2, 3},
		OwnerIDs:  []int64{1},
	}
	dm := &model.Conversation{
		Kind:      model.KindDM,
		CreatorID: 1,
		MemberIDs: []int64{1, 2, 3},
		OwnerIDs:  []int64{1},
	}

	cases := []struct {
		name     string
		conv     *model.Conversation
		user     *model.User
		authorID int64
		want     bool
	}{
		{"author", channel, &model.User{ID: 2, Tier: model.TierMember}, 2, true},
		{"channel owner", channel, &model.User{ID: 1, Tier: model.TierMember}, 2, true},
		{"plain member", channel, &model.User{ID: 3, Tier: model.TierMember}, 2, false},
		{"ws owner member", channel, &model.User{ID: 3, Tier: model.TierOwner}, 2, true},
		{"ws owner outsider", channel, &model.User{ID: 9, Tier: model.TierOwner}, 2, false},
		{"dm author", dm, &model.User{ID: 2, Tier: model.TierMember}, 2, true},
		{"dm creator", dm, &model.User{ID: 1, Tier: model.TierMember}, 2, true},
		{"dm plain member", dm, &model.User{ID: 3, Tier: model.TierMember}, 2, false},
		{"dm ws owner", dm, &model.User{ID: 3, Tier: model.TierOwner}, 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canMutateMessage(tc.conv, tc.user, tc.authorID); got != tc.want {
				t.Fatalf("canMutateMessage = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanModifyOwners(t *testing.T) {
	channel := &model.Conversation{
		Kind:      model.KindChannel,
		MemberIDs: []int64{1, 2, 3},
		OwnerIDs:  []int64{1},
	}

	cases := []struct {
		name string
		user *model.User
		want bool
	}{
		{"channel owner", &model.User{ID: 1, Tier: model.TierMember}, true},
		{"plain member", &model.User{ID: 2, Tier: model.TierMember}, false},
		{"ws owner member", &model.User{ID: 2, Tier: model.TierOwner}, true},
		{"ws owner outsider", &model.User{ID: 9, Tier: model.TierOwner}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canModifyOwners(channel, tc.user); got != tc.want {
				t.Fatalf("canModifyOwners = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanJoin(t *testing.T) {
	public := &model.Conversation{Kind: model.KindChannel, Public: true}
	private := &model.Conversation{Kind: model.KindChannel}

	if !canJoin(public, &model.User{Tier: model.TierMember}) {
		t.Fatal("member must join public channel")
	}
	if canJoin(private, &model.User{Tier: model.TierMember}) {
		t.Fatal("member must not join private channel")
	}
	if !canJoin(private, &model.User{Tier: model.TierOwner}) {
		t.Fatal("workspace owner must join private channel")
	}
}
