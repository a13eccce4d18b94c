package social

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

var errQuery = errors.New("query failed")

type recordingNotifier struct {
	calls int
	kind  string
}

func (r *recordingNotifier) Notify(_ context.Context, _, _, kind, _, _ string) {
	r.calls++
	r.kind = kind
}

func expectCountRefresh(mock pgxmock.PgxPoolIface, userID string, followers, following int) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_follows WHERE following_id`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"followers", "following"}).AddRow(followers, following))
	mock.ExpectExec(`INSERT INTO profile_stats`).
		WithArgs(userID, followers, following).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestFollowRefreshesBothCounters(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO user_follows`).
		WithArgs("alice", "bob").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectCountRefresh(mock, "alice", 0, 1)
	expectCountRefresh(mock, "bob", 1, 0)

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier)
	if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if notifier.calls != 1 || notifier.kind != "follow" {
		t.Fatalf("expected one follow notification, got %+v", notifier)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFollowUnfollowCountersConverge(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	// three follows then two unfollows against bob; the stored counter always
	// equals the exact edge count at each step, ending at 3-2=1
	bobFollowers := []int{1, 2, 3, 2, 1}
	ownFollowing := []int{1, 1, 1, 0, 0}
	followers := []string{"alice", "carol", "dave", "carol", "dave"}
	for i, follower := range followers {
		if i < 3 {
			mock.ExpectExec(`INSERT INTO user_follows`).
				WithArgs(follower, "bob").
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		} else {
			mock.ExpectExec(`DELETE FROM user_follows`).
				WithArgs(follower, "bob").
				WillReturnResult(pgxmock.NewResult("DELETE", 1))
		}
		expectCountRefresh(mock, follower, 0, ownFollowing[i])
		expectCountRefresh(mock, "bob", bobFollowers[i], 0)
	}

	svc := NewService(mock, nil)
	for i, follower := range followers {
		if i < 3 {
			if err := svc.Follow(context.Background(), follower, "bob"); err != nil {
				t.Fatalf("follow %d: %v", i, err)
			}
		} else {
			if err := svc.Unfollow(context.Background(), follower, "bob"); err != nil {
				t.Fatalf("unfollow %d: %v", i, err)
			}
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	svc := NewService(nil, nil)
	if err := svc.Follow(context.Background(), "alice", "alice"); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
}

func TestUnfollowRefreshError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM user_follows`).
		WithArgs("alice", "bob").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM user_follows WHERE following_id`).
		WithArgs("alice").
		WillReturnError(errQuery)

	svc := NewService(mock, nil)
	if err := svc.Unfollow(context.Background(), "alice", "bob"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIsFollowing(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("alice", "bob").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	svc := NewService(mock, nil)
	ok, err := svc.IsFollowing(context.Background(), "alice", "bob")
	if err != nil || !ok {
		t.Fatalf("is following: %v %v", ok, err)
	}
}

func TestFollowersListing(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`JOIN profiles p ON p.user_id = f.follower_id`).
		WithArgs("bob").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "display_name", "avatar_url"}).
			AddRow("alice", "alice", "Alice", ""))

	svc := NewService(mock, nil)
	followers, err := svc.Followers(context.Background(), "bob")
	if err != nil || len(followers) != 1 || followers[0].Username != "alice" {
		t.Fatalf("followers: %v %+v", err, followers)
	}
}
