package postRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
	svc "github.com/roweshkalloe/qualogy-ai-connect/post_service/models"
)

// newest posts a single channel contributes to a channel set listing
const perChannelLimit = 50

type PostgresRepo struct {
	primaryDB *sql.DB // For writes
	replicaDB *sql.DB // For reads
}

func NewPostgresRepo(primaryDB, replicaDB *sql.DB) *PostgresRepo {
	return &PostgresRepo{
		primaryDB: primaryDB,
		replicaDB: replicaDB,
	}
}

func newID() string {
	return ulid.Make().String()
}

// mapError turns driver errors into the package sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "foreign_key_violation":
			return fmt.Errorf("%w: %v", ErrNotFound, pqErr.Constraint)
		case "unique_violation":
			return fmt.Errorf("%w: %v", ErrConflict, pqErr.Constraint)
		}
	}
	return err
}

func (ps *PostgresRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := ps.primaryDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func writeOutbox(ctx context.Context, tx *sql.Tx, evt models.Event) error {
	payload, err := evt.Marshal()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (topic, kafka_key, payload) VALUES ($1, $2, $3)`,
		evt.Topic, evt.Key(), payload)
	if err != nil {
		log.Printf("Failed to insert %v event in outbox DB: %v", evt.Topic, err.Error())
	}
	return err
}

// Write operations use primaryDB

func (ps *PostgresRepo) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	post.Id = newID()
	if post.Tags == nil {
		post.Tags = []string{}
	}
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO posts (post_id, channel_id, user_id, title, content, image_url, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
			post.Id, post.ChannelId, post.UserId, post.Title, post.Content, post.ImageUrl, pq.Array(post.Tags),
		).Scan(&post.CreatedAt)
		if err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE channels SET post_count = post_count + 1 WHERE channel_id = $1`, post.ChannelId); err != nil {
			return err
		}
		return writeOutbox(ctx, tx, models.Event{
			Topic:        models.TopicPostCreated,
			PostId:       post.Id,
			PostAuthorId: post.UserId,
			ChannelId:    post.ChannelId,
			ActorId:      post.UserId,
			Content:      post.Title,
			CreatedAt:    post.CreatedAt.UnixMilli(),
		})
	})
	if err != nil {
		log.Println("Error creating post: ", err.Error())
		return models.Post{}, err
	}
	return post, nil
}

func (ps *PostgresRepo) DeletePost(ctx context.Context, id, userId string) error {
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		var owner, channelId string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, channel_id FROM posts WHERE post_id = $1 FOR UPDATE`, id).Scan(&owner, &channelId)
		if err != nil {
			return mapError(err)
		}
		if owner != userId {
			return ErrForbidden
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE post_id = $1`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE channels SET post_count = GREATEST(post_count - 1, 0) WHERE channel_id = $1`, channelId)
		return err
	})
	if err != nil {
		log.Printf("Error Deleting post{%v} : %v\n", id, err.Error())
	}
	return err
}

func (ps *PostgresRepo) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	comment.Id = newID()
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		var postAuthor string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM posts WHERE post_id = $1`, comment.PostId).Scan(&postAuthor)
		if err != nil {
			return mapError(err)
		}

		var parentAuthor string
		parent := sql.NullString{String: comment.ParentId, Valid: comment.ParentId != ""}
		if parent.Valid {
			var parentPost string
			err := tx.QueryRowContext(ctx,
				`SELECT post_id, user_id FROM comments WHERE comment_id = $1`, comment.ParentId).Scan(&parentPost, &parentAuthor)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && parentPost != comment.PostId) {
				return ErrInvalidParent
			}
			if err != nil {
				return err
			}
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO comments (comment_id, post_id, user_id, content, parent_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
			comment.Id, comment.PostId, comment.UserId, comment.Content, parent,
		).Scan(&comment.CreatedAt)
		if err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET comments_count = comments_count + 1 WHERE post_id = $1`, comment.PostId); err != nil {
			return err
		}
		return writeOutbox(ctx, tx, models.Event{
			Topic:          models.TopicCommentCreated,
			PostId:         comment.PostId,
			PostAuthorId:   postAuthor,
			CommentId:      comment.Id,
			ParentId:       comment.ParentId,
			ParentAuthorId: parentAuthor,
			ActorId:        comment.UserId,
			Content:        comment.Content,
			CreatedAt:      comment.CreatedAt.UnixMilli(),
		})
	})
	if err != nil {
		log.Println("Error creating Comment: ", err.Error())
		return models.Comment{}, err
	}
	return comment, nil
}

func (ps *PostgresRepo) DeleteComment(ctx context.Context, id, userId string) (string, int64, error) {
	var postId string
	var removed int64
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, post_id FROM comments WHERE comment_id = $1 FOR UPDATE`, id).Scan(&owner, &postId)
		if err != nil {
			return mapError(err)
		}
		if owner != userId {
			return ErrForbidden
		}
		res, err := tx.ExecContext(ctx,
			`WITH RECURSIVE thread AS (
				SELECT comment_id FROM comments WHERE comment_id = $1
				UNION ALL
				SELECT c.comment_id FROM comments c JOIN thread t ON c.parent_id = t.comment_id
			)
			DELETE FROM comments WHERE comment_id IN (SELECT comment_id FROM thread)`, id)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET comments_count = GREATEST(comments_count - $2, 0) WHERE post_id = $1`, postId, removed)
		return err
	})
	if err != nil {
		log.Printf("Error Deleting comment{%v} : %v\n", id, err.Error())
		return "", 0, err
	}
	return postId, removed, nil
}

func (ps *PostgresRepo) CreateLike(ctx context.Context, postId, userId string) (bool, int64, error) {
	var changed bool
	var count int64
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postId, userId)
		if err != nil {
			return mapError(err)
		}
		n, _ := res.RowsAffected()
		changed = n == 1
		if !changed {
			return mapError(tx.QueryRowContext(ctx,
				`SELECT likes_count FROM posts WHERE post_id = $1`, postId).Scan(&count))
		}
		var author string
		err = tx.QueryRowContext(ctx,
			`UPDATE posts SET likes_count = likes_count + 1 WHERE post_id = $1 RETURNING likes_count, user_id`,
			postId).Scan(&count, &author)
		if err != nil {
			return mapError(err)
		}
		return writeOutbox(ctx, tx, models.Event{
			Topic:        models.TopicLikeCreated,
			PostId:       postId,
			PostAuthorId: author,
			ActorId:      userId,
			CreatedAt:    time.Now().UnixMilli(),
		})
	})
	if err != nil {
		log.Printf("Error creating Like on post{%v} by user{%v}: %v", postId, userId, err.Error())
		return false, 0, err
	}
	return changed, count, nil
}

func (ps *PostgresRepo) DeleteLike(ctx context.Context, postId, userId string) (bool, int64, error) {
	var changed bool
	var count int64
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postId, userId)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		changed = n == 1
		query := `SELECT likes_count FROM posts WHERE post_id = $1`
		if changed {
			query = `UPDATE posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE post_id = $1 RETURNING likes_count`
		}
		return mapError(tx.QueryRowContext(ctx, query, postId).Scan(&count))
	})
	if err != nil {
		log.Printf("Error Deleting like{%v} : %v\n", postId, err.Error())
		return false, 0, err
	}
	return changed, count, nil
}

func (ps *PostgresRepo) CreateFavorite(ctx context.Context, postId, userId string) (bool, error) {
	res, err := ps.primaryDB.ExecContext(ctx,
		`INSERT INTO favorites (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postId, userId)
	if err != nil {
		log.Println("Error creating Favorite: ", err.Error())
		return false, mapError(err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (ps *PostgresRepo) DeleteFavorite(ctx context.Context, postId, userId string) (bool, error) {
	res, err := ps.primaryDB.ExecContext(ctx,
		`DELETE FROM favorites WHERE post_id = $1 AND user_id = $2`, postId, userId)
	if err != nil {
		log.Printf("Error Deleting favorite{%v} : %v\n", postId, err.Error())
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// Read operations use replicaDB

const postColumns = `p.post_id, p.channel_id, p.user_id, p.title, p.content, p.image_url, p.tags,
	p.likes_count, p.comments_count, p.created_at,
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.post_id AND l.user_id = $1),
	EXISTS (SELECT 1 FROM favorites f WHERE f.post_id = p.post_id AND f.user_id = $1)`

func (ps *PostgresRepo) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := ps.replicaDB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Println("Error querying posts: ", err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.Id, &p.ChannelId, &p.UserId, &p.Title, &p.Content, &p.ImageUrl, pq.Array(&p.Tags),
			&p.LikesCount, &p.CommentsCount, &p.CreatedAt, &p.Liked, &p.Favorited); err != nil {
			log.Println("Error scanning post row: ", err.Error())
			return nil, err
		}
		posts = append(posts, p)
	}
	if err = rows.Err(); err != nil {
		log.Println("Error iterating post rows: ", err.Error())
		return nil, err
	}
	return posts, nil
}

func (ps *PostgresRepo) GetPost(ctx context.Context, id, viewerId string) (models.Post, error) {
	posts, err := ps.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.post_id = $2`, viewerId, id)
	if err != nil {
		return models.Post{}, err
	}
	if len(posts) == 0 {
		return models.Post{}, ErrNotFound
	}
	return posts[0], nil
}

func (ps *PostgresRepo) GetPosts(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return ps.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.post_id = ANY($2) ORDER BY p.created_at DESC`,
		"", pq.Array(ids))
}

func (ps *PostgresRepo) ListPostsByWindow(ctx context.Context, viewerId string, start, end time.Time) ([]models.Post, error) {
	return ps.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts p
		WHERE p.created_at >= $2 AND p.created_at <= $3
		ORDER BY p.created_at DESC`,
		viewerId, start, end)
}

func (ps *PostgresRepo) ListPostsByChannels(ctx context.Context, viewerId string, channelIds []string) ([]models.Post, error) {
	if len(channelIds) == 0 {
		return []models.Post{}, nil
	}
	return ps.queryPosts(ctx,
		`SELECT `+postColumns+` FROM unnest($2::text[]) AS ch(id)
		CROSS JOIN LATERAL (
			SELECT * FROM posts WHERE channel_id = ch.id ORDER BY created_at DESC LIMIT $3
		) p
		ORDER BY p.created_at DESC`,
		viewerId, pq.Array(channelIds), perChannelLimit)
}

func (ps *PostgresRepo) ListPostsByUser(ctx context.Context, userId, viewerId string) ([]models.Post, error) {
	return ps.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts p WHERE p.user_id = $2 ORDER BY p.created_at DESC`,
		viewerId, userId)
}

func (ps *PostgresRepo) ListFavoritePosts(ctx context.Context, userId string) ([]models.Post, error) {
	return ps.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts p
		JOIN favorites fav ON fav.post_id = p.post_id AND fav.user_id = $1
		ORDER BY fav.created_at DESC`,
		userId)
}

func (ps *PostgresRepo) GetComments(ctx context.Context, postId string) ([]models.Comment, error) {
	rows, err := ps.replicaDB.QueryContext(ctx,
		`SELECT comment_id, post_id, user_id, content, parent_id, created_at FROM comments
		WHERE post_id = $1 ORDER BY created_at ASC, comment_id ASC`, postId)
	if err != nil {
		log.Println("Error querying comments: ", err.Error())
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var parent sql.NullString
		if err := rows.Scan(&c.Id, &c.PostId, &c.UserId, &c.Content, &parent, &c.CreatedAt); err != nil {
			log.Println("Error scanning comment row: ", err.Error())
			return nil, err
		}
		c.ParentId = parent.String
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (ps *PostgresRepo) GetCounters(ctx context.Context, ids []string) ([]svc.CachedCounter, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := ps.replicaDB.QueryContext(ctx,
		`SELECT post_id, likes_count, comments_count FROM posts WHERE post_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		log.Println("Error querying posts: ", err.Error())
		return nil, err
	}
	defer rows.Close()

	cnts := make([]svc.CachedCounter, 0, len(ids))
	for rows.Next() {
		var cnt svc.CachedCounter
		if err := rows.Scan(&cnt.Id, &cnt.Likes, &cnt.Comments); err != nil {
			log.Println("Error scanning post row: ", err.Error())
			return nil, err
		}
		cnts = append(cnts, cnt)
	}
	return cnts, rows.Err()
}

func (ps *PostgresRepo) GetUserStats(ctx context.Context, userId string) (models.UserStats, error) {
	var stats models.UserStats
	err := ps.replicaDB.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM posts WHERE user_id = $1),
			(SELECT COALESCE(SUM(likes_count), 0) FROM posts WHERE user_id = $1),
			(SELECT COUNT(*) FROM channel_members WHERE user_id = $1)`,
		userId).Scan(&stats.Posts, &stats.LikesReceived, &stats.JoinedChannels)
	if err != nil {
		log.Printf("Error loading stats of user{%v}: %v", userId, err.Error())
	}
	return stats, err
}

// Outbox

func (ps *PostgresRepo) PendingOutbox(ctx context.Context, limit int) ([]svc.OutboxRow, error) {
	rows, err := ps.primaryDB.QueryContext(ctx,
		`SELECT id, topic, kafka_key, payload FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []svc.OutboxRow
	for rows.Next() {
		var row svc.OutboxRow
		if err := rows.Scan(&row.Id, &row.Topic, &row.KafkaKey, &row.Payload); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (ps *PostgresRepo) MarkOutboxSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := ps.primaryDB.ExecContext(ctx,
		`UPDATE outbox SET sent_at = now() WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

func (ps *PostgresRepo) Close() {
	if err := ps.primaryDB.Close(); err != nil {
		log.Printf("Error Closing Primary DB --> %v", err.Error())
	} else {
		log.Println("PrimaryDB closed Successfully")
	}
	if ps.replicaDB == ps.primaryDB {
		return
	}
	if err := ps.replicaDB.Close(); err != nil {
		log.Printf("Error Closing Replica DB --> %v", err.Error())
	} else {
		log.Println("ReplicaDB closed Successfully")
	}
}
