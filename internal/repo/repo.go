package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repo is the dev sync server's storage over the workspace database.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ClientRow mirrors the clients table; count columns carry the wire names.
type ClientRow struct {
	ID                       int64
	Name                     string
	Address                  string
	TotalStationsInside      int
	TotalStationsOutside     int
	TotalInsectMonitorsLight int
	TotalInsectMonitorsBox   int
	CreatedAt                string
}

// ReportRow stores a submitted report with its raw wire body.
type ReportRow struct {
	ID          int64
	ClientID    int64
	ReportType  string
	ServiceDate string
	Body        string
	CreatedAt   string
	UpdatedAt   string
}

func (r Repo) InsertClient(ctx context.Context, c ClientRow) (int64, error) {
	createdAt := c.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO clients(name,address,total_stations_inside,total_stations_outside,total_insect_monitors_light,total_insect_monitors_box,created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		c.Name, nullable(c.Address), c.TotalStationsInside, c.TotalStationsOutside,
		c.TotalInsectMonitorsLight, c.TotalInsectMonitorsBox, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetClient(ctx context.Context, id int64) (ClientRow, error) {
	var c ClientRow
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,name,COALESCE(address,''),total_stations_inside,total_stations_outside,total_insect_monitors_light,total_insect_monitors_box,created_at
		 FROM clients WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.TotalStationsInside, &c.TotalStationsOutside,
			&c.TotalInsectMonitorsLight, &c.TotalInsectMonitorsBox, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) UpdateClientCounts(ctx context.Context, id int64, inside, outside, light, box int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE clients SET total_stations_inside=?, total_stations_outside=?, total_insect_monitors_light=?, total_insect_monitors_box=? WHERE id=?`,
		inside, outside, light, box, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) InsertReport(ctx context.Context, rep ReportRow) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reports(client_id,report_type,service_date,body,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		rep.ClientID, rep.ReportType, rep.ServiceDate, rep.Body, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) UpdateReport(ctx context.Context, id int64, reportType, serviceDate, body string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE reports SET report_type=?, service_date=?, body=?, updated_at=? WHERE id=?`,
		reportType, serviceDate, body, now, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetReport(ctx context.Context, id int64) (ReportRow, error) {
	var rep ReportRow
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,client_id,report_type,service_date,body,created_at,updated_at FROM reports WHERE id=?`, id).
		Scan(&rep.ID, &rep.ClientID, &rep.ReportType, &rep.ServiceDate, &rep.Body, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return rep, ErrNotFound
	}
	return rep, err
}

// LatestReportForClient returns the most recently submitted report, used
// by the previous-report pre-fill endpoint.
func (r Repo) LatestReportForClient(ctx context.Context, clientID int64) (ReportRow, error) {
	var rep ReportRow
	err := r.DB.QueryRowContext(ctx,
		`SELECT id,client_id,report_type,service_date,body,created_at,updated_at
		 FROM reports WHERE client_id=? ORDER BY id DESC LIMIT 1`, clientID).
		Scan(&rep.ID, &rep.ClientID, &rep.ReportType, &rep.ServiceDate, &rep.Body, &rep.CreatedAt, &rep.UpdatedAt)
	if err == sql.ErrNoRows {
		return rep, ErrNotFound
	}
	return rep, err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
