package postgres

const (
	queryCreateRoom = `
		INSERT INTO rooms (id, name, current_destination_id, location_state, bus_style)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	querySelectRoom = `
		SELECT id, name, current_destination_id, location_state, bus_style, created_at
		FROM rooms`
	queryUpdateRoomDestination = `UPDATE rooms SET current_destination_id=$2, location_state=$3 WHERE id=$1`
	queryUpdateRoomBusStyle    = `UPDATE rooms SET bus_style=$2 WHERE id=$1`

	queryCreatePassenger = `
		INSERT INTO passengers (id, room_id, name, avatar, role, xp, level, is_vip)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING joined_at`
	querySelectPassenger = `
		SELECT id, room_id, name, avatar, role, xp, level, is_vip, joined_at
		FROM passengers`
	queryUpdatePassengerXP = `UPDATE passengers SET xp=$2, level=$3 WHERE id=$1`
	queryDeletePassenger   = `DELETE FROM passengers WHERE id=$1`

	queryCreateMessage = `
		INSERT INTO messages (id, room_id, passenger_id, "user", avatar, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	queryListMessages = `
		SELECT id, room_id, passenger_id, "user", avatar, message, created_at
		FROM messages
		WHERE room_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	queryCreatePoll = `
		INSERT INTO polls (id, room_id, question, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING created_at`
	querySelectPoll = `SELECT id, room_id, question, is_active, created_at FROM polls`
	queryClosePoll  = `UPDATE polls SET is_active=false WHERE id=$1 AND is_active`

	queryCreateOption = `
		INSERT INTO poll_options (id, poll_id, position, destination_id, text, votes)
		VALUES ($1, $2, $3, $4, $5, 0)`
	queryListOptions = `
		SELECT id, poll_id, position, destination_id, text, votes
		FROM poll_options WHERE poll_id=$1 ORDER BY position ASC`
	queryIncrementOption = `UPDATE poll_options SET votes = votes + 1 WHERE id=$1 AND poll_id=$2`

	queryCreateVote = `
		INSERT INTO poll_votes (id, poll_id, passenger_id, option_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`
	queryHasVoted = `SELECT EXISTS(SELECT 1 FROM poll_votes WHERE poll_id=$1 AND passenger_id=$2)`
)
