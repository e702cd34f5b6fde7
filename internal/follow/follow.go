package follow

import (
	"context"

	"github.com/Stevenalenga/plink-sub000/internal/db"
)

// Checker answers follow-edge queries. The follow graph itself is maintained
// elsewhere; this package only reads it.
type Checker interface {
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowersOf(ctx context.Context, followeeID string) ([]string, error)
}

type Graph struct {
	db db.Querier
}

func NewGraph(db db.Querier) *Graph {
	return &Graph{db: db}
}

func (g *Graph) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var ok bool
	err := g.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_follows
			WHERE follower_id=$1 AND following_id=$2
		)
	`, followerID, followeeID).Scan(&ok)
	return ok, err
}

func (g *Graph) FollowersOf(ctx context.Context, followeeID string) ([]string, error) {
	rows, err := g.db.Query(ctx, `
		SELECT follower_id FROM user_follows WHERE following_id=$1
	`, followeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		followers = append(followers, id)
	}
	return followers, nil
}
