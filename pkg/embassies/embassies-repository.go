package embassies

import (
	"database/sql"
	"errors"
	"time"
)

type EmbassyRepository interface {
	GetAllLists() ([]EmbassyList, error)
	GetListsByCountry(countryId int64) ([]EmbassyList, error)
	GetList(id int64) (EmbassyList, error)
	AddList(data AddListData) (EmbassyList, error)
	DeleteList(id int64) ([]string, error)

	Members(listId int64) ([]Embassy, error)
	GetMember(id int64) (Embassy, error)
	AddMember(listId int64, data MemberData, photo string) (Embassy, error)
	UpdateMember(id int64, data MemberData, photo string) error
	DeleteMember(id int64) error
}

var (
	ErrListNotFound   = errors.New("embassy list not found")
	ErrMemberNotFound = errors.New("embassy entry not found")
)

type embassyRepository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) EmbassyRepository {
	return &embassyRepository{connection}
}

func (er *embassyRepository) GetAllLists() ([]EmbassyList, error) {
	return er.queryLists(`
		SELECT embassy_lists.id, embassy_lists.name, embassy_lists.country_id, embassy_lists.created
		FROM embassy_lists JOIN countries ON embassy_lists.country_id = countries.id
		ORDER BY countries.name, embassy_lists.name`)
}

func (er *embassyRepository) GetListsByCountry(countryId int64) ([]EmbassyList, error) {
	return er.queryLists(
		"SELECT id, name, country_id, created FROM embassy_lists WHERE country_id = ? ORDER BY name",
		countryId,
	)
}

func (er *embassyRepository) queryLists(statement string, args ...any) (lists []EmbassyList, err error) {

	lists = make([]EmbassyList, 0)

	rows, err := er.Connection.Query(statement, args...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var list EmbassyList
		if err = rows.Scan(&list.Id, &list.Name, &list.CountryId, &list.Created); err != nil {
			return lists, err
		}
		lists = append(lists, list)
	}

	if err = rows.Err(); err != nil {
		return lists, err
	}
	return lists, rows.Close()
}

func (er *embassyRepository) GetList(id int64) (list EmbassyList, err error) {
	err = er.Connection.QueryRow(
		"SELECT id, name, country_id, created FROM embassy_lists WHERE id = ?", id,
	).Scan(&list.Id, &list.Name, &list.CountryId, &list.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return list, ErrListNotFound
	}
	return list, err
}

func (er *embassyRepository) AddList(data AddListData) (list EmbassyList, err error) {

	var now = time.Now().UTC()
	result, err := er.Connection.Exec(
		"INSERT INTO embassy_lists (name, country_id, created) VALUES (?, ?, ?)",
		data.Name, data.CountryId, now,
	)
	if err != nil {
		return list, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return list, err
	}
	return EmbassyList{Id: id, Name: data.Name, CountryId: data.CountryId, Created: now}, nil
}

// DeleteList removes the list and, through the cascade, its entries; it returns the stored photo
// names of the removed entries so the caller can clean the files up.
func (er *embassyRepository) DeleteList(id int64) (photos []string, err error) {

	rows, err := er.Connection.Query(
		"SELECT photo FROM embassies WHERE list_id = ? AND photo IS NOT NULL", id,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var photo string
		if err = rows.Scan(&photo); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	result, err := er.Connection.Exec("DELETE FROM embassy_lists WHERE id = ?", id)
	if err != nil {
		return nil, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, ErrListNotFound
	}
	return photos, nil
}

const memberColumns = "id, list_id, name, ambassador_name, phone, email, instagram, photo, created"

func (er *embassyRepository) Members(listId int64) (members []Embassy, err error) {

	members = make([]Embassy, 0)

	rows, err := er.Connection.Query(
		"SELECT "+memberColumns+" FROM embassies WHERE list_id = ? ORDER BY name", listId,
	)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return members, err
		}
		members = append(members, member)
	}

	if err = rows.Err(); err != nil {
		return members, err
	}
	return members, rows.Close()
}

func scanMember(scanner interface{ Scan(...any) error }) (member Embassy, err error) {
	var photo sql.NullString
	if err = scanner.Scan(
		&member.Id, &member.ListId, &member.Name, &member.AmbassadorName,
		&member.Phone, &member.Email, &member.Instagram, &photo, &member.Created,
	); err != nil {
		return member, err
	}
	member.Photo = photo.String
	return member, nil
}

func (er *embassyRepository) GetMember(id int64) (Embassy, error) {
	member, err := scanMember(er.Connection.QueryRow(
		"SELECT "+memberColumns+" FROM embassies WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return member, ErrMemberNotFound
	}
	return member, err
}

func (er *embassyRepository) AddMember(listId int64, data MemberData, photo string) (member Embassy, err error) {

	var now = time.Now().UTC()
	result, err := er.Connection.Exec(`
		INSERT INTO embassies (list_id, name, ambassador_name, phone, email, instagram, photo, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		listId, data.Name, data.AmbassadorName, data.Phone, data.Email, data.Instagram,
		sql.NullString{String: photo, Valid: photo != ""}, now,
	)
	if err != nil {
		return member, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return member, err
	}

	return Embassy{
		Id:             id,
		ListId:         listId,
		Name:           data.Name,
		AmbassadorName: data.AmbassadorName,
		Phone:          data.Phone,
		Email:          data.Email,
		Instagram:      data.Instagram,
		Photo:          photo,
		Created:        now,
	}, nil
}

// UpdateMember rewrites an entry's fields; an empty photo keeps the stored one.
func (er *embassyRepository) UpdateMember(id int64, data MemberData, photo string) error {

	result, err := er.Connection.Exec(`
		UPDATE embassies
		SET name = ?, ambassador_name = ?, phone = ?, email = ?, instagram = ?,
			photo = CASE WHEN ? != '' THEN ? ELSE photo END
		WHERE id = ?`,
		data.Name, data.AmbassadorName, data.Phone, data.Email, data.Instagram, photo, photo, id,
	)
	if err != nil {
		return err
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (er *embassyRepository) DeleteMember(id int64) error {

	result, err := er.Connection.Exec("DELETE FROM embassies WHERE id = ?", id)
	if err != nil {
		return err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrMemberNotFound
	}
	return nil
}
