package postRepo

import (
	"context"
	"database/sql"
	"log"

	"github.com/lib/pq"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

const channelColumns = `c.channel_id, c.name, c.slug, c.description, c.icon, c.color,
	c.member_count, c.post_count, c.created_at, c.updated_at,
	EXISTS (SELECT 1 FROM channel_members m WHERE m.channel_id = c.channel_id AND m.user_id = $1),
	COALESCE((SELECT array_agg(a.user_id ORDER BY a.user_id) FROM channel_admins a WHERE a.channel_id = c.channel_id), '{}')`

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (models.Channel, error) {
	var ch models.Channel
	err := row.Scan(&ch.Id, &ch.Name, &ch.Slug, &ch.Description, &ch.Icon, &ch.Color,
		&ch.MemberCount, &ch.PostCount, &ch.CreatedAt, &ch.UpdatedAt, &ch.Joined, pq.Array(&ch.Admins))
	return ch, err
}

func (ps *PostgresRepo) ListChannels(ctx context.Context, viewerId string) ([]models.Channel, error) {
	rows, err := ps.replicaDB.QueryContext(ctx,
		`SELECT `+channelColumns+` FROM channels c ORDER BY c.name`, viewerId)
	if err != nil {
		log.Println("Error querying channels: ", err.Error())
		return nil, err
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			log.Println("Error scanning channel row: ", err.Error())
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (ps *PostgresRepo) GetChannel(ctx context.Context, id, viewerId string) (models.Channel, error) {
	ch, err := scanChannel(ps.replicaDB.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels c WHERE c.channel_id = $2`, viewerId, id))
	return ch, mapError(err)
}

func (ps *PostgresRepo) GetChannelBySlug(ctx context.Context, slug, viewerId string) (models.Channel, error) {
	ch, err := scanChannel(ps.replicaDB.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels c WHERE c.slug = $2`, viewerId, slug))
	return ch, mapError(err)
}

// CreateChannel stores the channel and makes its creator the first channel admin.
func (ps *PostgresRepo) CreateChannel(ctx context.Context, channel models.Channel, creatorId string) (models.Channel, error) {
	channel.Id = newID()
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO channels (channel_id, name, slug, description, icon, color)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
			channel.Id, channel.Name, channel.Slug, channel.Description, channel.Icon, channel.Color,
		).Scan(&channel.CreatedAt, &channel.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO channel_admins (channel_id, user_id) VALUES ($1, $2)`, channel.Id, creatorId)
		return err
	})
	if err != nil {
		log.Printf("Error creating channel{%v}: %v", channel.Slug, err.Error())
		return models.Channel{}, err
	}
	channel.Admins = []string{creatorId}
	channel.MemberCount, channel.PostCount = 0, 0
	return channel, nil
}

func (ps *PostgresRepo) UpdateChannel(ctx context.Context, channel models.Channel) (models.Channel, error) {
	res, err := ps.primaryDB.ExecContext(ctx,
		`UPDATE channels SET name = $2, slug = $3, description = $4, icon = $5, color = $6, updated_at = now()
		WHERE channel_id = $1`,
		channel.Id, channel.Name, channel.Slug, channel.Description, channel.Icon, channel.Color)
	if err != nil {
		log.Printf("Error updating channel{%v}: %v", channel.Id, err.Error())
		return models.Channel{}, mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Channel{}, ErrNotFound
	}
	// read back from primary, the replica may lag behind
	ch, err := scanChannel(ps.primaryDB.QueryRowContext(ctx,
		`SELECT `+channelColumns+` FROM channels c WHERE c.channel_id = $2`, "", channel.Id))
	return ch, mapError(err)
}

func (ps *PostgresRepo) DeleteChannel(ctx context.Context, id string) error {
	res, err := ps.primaryDB.ExecContext(ctx, `DELETE FROM channels WHERE channel_id = $1`, id)
	if err != nil {
		log.Printf("Error deleting channel{%v}: %v", id, err.Error())
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PostgresRepo) IsChannelAdmin(ctx context.Context, channelId, userId string) (bool, error) {
	var ok bool
	err := ps.replicaDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM channel_admins WHERE channel_id = $1 AND user_id = $2)`,
		channelId, userId).Scan(&ok)
	return ok, err
}

func (ps *PostgresRepo) JoinChannel(ctx context.Context, channelId, userId string) (bool, int64, error) {
	return ps.membership(ctx, channelId, userId,
		`INSERT INTO channel_members (channel_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`UPDATE channels SET member_count = member_count + 1 WHERE channel_id = $1 RETURNING member_count`)
}

func (ps *PostgresRepo) LeaveChannel(ctx context.Context, channelId, userId string) (bool, int64, error) {
	return ps.membership(ctx, channelId, userId,
		`DELETE FROM channel_members WHERE channel_id = $1 AND user_id = $2`,
		`UPDATE channels SET member_count = GREATEST(member_count - 1, 0) WHERE channel_id = $1 RETURNING member_count`)
}

// membership runs a join or leave write and moves the member counter only
// when a row actually changed.
func (ps *PostgresRepo) membership(ctx context.Context, channelId, userId, write, bump string) (bool, int64, error) {
	var changed bool
	var members int64
	err := ps.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, write, channelId, userId)
		if err != nil {
			return mapError(err)
		}
		n, _ := res.RowsAffected()
		changed = n == 1
		query := `SELECT member_count FROM channels WHERE channel_id = $1`
		if changed {
			query = bump
		}
		return mapError(tx.QueryRowContext(ctx, query, channelId).Scan(&members))
	})
	if err != nil {
		log.Printf("Error changing membership of user{%v} in channel{%v}: %v", userId, channelId, err.Error())
		return false, 0, err
	}
	return changed, members, nil
}

func (ps *PostgresRepo) JoinedChannelIds(ctx context.Context, userId string) ([]string, error) {
	rows, err := ps.replicaDB.QueryContext(ctx,
		`SELECT channel_id FROM channel_members WHERE user_id = $1 ORDER BY joined_at ASC`, userId)
	if err != nil {
		log.Println("Error querying joined channels: ", err.Error())
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
