/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package simplycompete

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mikeb26/tkdrank/internal"
)

// MaxParticipantPages bounds pagination in case the server never returns an
// empty page.
const MaxParticipantPages = 100

// FlexString decodes a JSON string, number or null into a string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// Participant is one registration in an event.
type Participant struct {
	FirstName          string     `json:"firstName"`
	LastName           string     `json:"lastName"`
	PreferredFirstName string     `json:"preferredFirstName"`
	PreferredLastName  string     `json:"preferredLastName"`
	Country            string     `json:"country"`
	DivisionName       string     `json:"divisionName"`
	ClubName           string     `json:"clubName"`
	CustomClubName     string     `json:"customClubName"`
	LicenseID          FlexString `json:"wtfLicenseId"`
	SeedNumber         FlexString `json:"seedNumber"`
}

// DisplayName prefers the athlete's chosen names over their legal ones.
func (p Participant) DisplayName() string {
	first := p.PreferredFirstName
	if first == "" {
		first = p.FirstName
	}
	last := p.PreferredLastName
	if last == "" {
		last = p.LastName
	}
	return internal.NormalizeName(first + " " + last)
}

func (p Participant) Club() string {
	if p.ClubName != "" {
		return p.ClubName
	}
	return p.CustomClubName
}

func (p Participant) Division() string {
	if p.DivisionName == "" {
		return "No Division"
	}
	return p.DivisionName
}

type participantPage struct {
	Data struct {
		Data struct {
			ParticipantList []Participant `json:"participantList"`
		} `json:"data"`
	} `json:"data"`
}

// FetchParticipants pages through an event's participant list until an empty
// page or MaxParticipantPages. nodeID optionally narrows the list to one
// division node. On a failed page the participants gathered so far are
// returned along with the error.
func (client *Client) FetchParticipants(ctx context.Context, eventID,
	nodeID string) ([]Participant, error) {

	cookies, err := client.cookies.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cookies: %w", err)
	}
	referer := client.endpoint("/eventDetails/"+url.PathEscape(eventID)+"/5", nil)

	var all []Participant
	for pageNo := 0; pageNo < MaxParticipantPages; pageNo++ {
		q := url.Values{}
		q.Set("eventId", eventID)
		q.Set("isHideUnpaidEntries", "false")
		q.Set("pageNo", strconv.Itoa(pageNo))
		if nodeID != "" {
			q.Set("nodeId", nodeID)
			q.Set("nodeLevel", "EventRole")
		}

		body, err := client.get(ctx, client.endpoint("/events/getEventParticipant", q),
			referer, cookies)
		if err != nil {
			return all, fmt.Errorf("fetching participants page %v of %v: %w",
				pageNo, eventID, err)
		}

		var page participantPage
		if err := json.Unmarshal(body, &page); err != nil {
			return all, fmt.Errorf("decoding participants page %v of %v: %w",
				pageNo, eventID, err)
		}
		list := page.Data.Data.ParticipantList
		if len(list) == 0 {
			break
		}
		all = append(all, list...)
	}

	return all, nil
}

// FetchParticipantsForEvents fetches several events' participants
// concurrently. Any failure cancels the rest.
func (client *Client) FetchParticipantsForEvents(ctx context.Context,
	eventIDs []string) (map[string][]Participant, error) {

	out := make(map[string][]Participant)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range eventIDs {
		g.Go(func() error {
			ps, err := client.FetchParticipants(gctx, id, "")
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = ps
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
