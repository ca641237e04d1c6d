package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/syncapps/chanbridge/internal/domain"
	"github.com/syncapps/chanbridge/internal/slack"
	"github.com/syncapps/chanbridge/internal/space"
)

// In-memory repository implementations for engine tests. All are safe
// for the single-goroutine use the tests make of them; memRefs takes a
// mutex because the directory cache tests exercise it concurrently.

type memLinks struct {
	links []domain.ChannelLink
}

func (m *memLinks) AddIfAbsent(_ context.Context, link domain.ChannelLink) (bool, error) {
	for _, l := range m.links {
		if l == link {
			return false, nil
		}
	}
	m.links = append(m.links, link)
	return true, nil
}

func (m *memLinks) GetBySlackChannel(_ context.Context, teamID, channelID string) (*domain.ChannelLink, error) {
	for _, l := range m.links {
		if l.SlackTeamID == teamID && l.SlackChannelID == channelID {
			link := l
			return &link, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (m *memLinks) GetBySpaceChannel(_ context.Context, clientID, channelID string) (*domain.ChannelLink, error) {
	for _, l := range m.links {
		if l.SpaceClientID == clientID && l.SpaceChannelID == channelID {
			link := l
			return &link, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (m *memLinks) ListBySlackTeam(_ context.Context, teamID string) ([]domain.ChannelLink, error) {
	var out []domain.ChannelLink
	for _, l := range m.links {
		if l.SlackTeamID == teamID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLinks) ListBySpaceClient(_ context.Context, clientID string) ([]domain.ChannelLink, error) {
	var out []domain.ChannelLink
	for _, l := range m.links {
		if l.SpaceClientID == clientID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLinks) Remove(_ context.Context, link domain.ChannelLink) error {
	kept := m.links[:0]
	for _, l := range m.links {
		if l.SlackTeamID == link.SlackTeamID && l.SlackChannelID == link.SlackChannelID &&
			l.SpaceClientID == link.SpaceClientID && l.SpaceChannelID == link.SpaceChannelID {
			continue
		}
		kept = append(kept, l)
	}
	m.links = kept
	return nil
}

func (m *memLinks) RemoveBySlackTeam(_ context.Context, teamID string) error {
	kept := m.links[:0]
	for _, l := range m.links {
		if l.SlackTeamID != teamID {
			kept = append(kept, l)
		}
	}
	m.links = kept
	return nil
}

type memTeams struct {
	teams map[string]*domain.SlackTeam
}

func (m *memTeams) GetByID(_ context.Context, teamID string) (*domain.SlackTeam, error) {
	team, ok := m.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (m *memTeams) CreateOrUpdate(_ context.Context, team domain.SlackTeam) error {
	m.teams[team.ID] = &team
	return nil
}

func (m *memTeams) UpdateDomain(_ context.Context, teamID, newDomain string) error {
	team, ok := m.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	team.Domain = newDomain
	return nil
}

func (m *memTeams) UpdateTokens(_ context.Context, teamID string, accessToken, refreshToken []byte, expiresAt time.Time) error {
	team, ok := m.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	team.AccessToken = accessToken
	team.RefreshToken = refreshToken
	team.AccessTokenExpiresAt = expiresAt
	return nil
}

func (m *memTeams) MarkTokenInvalid(_ context.Context, teamID string) error {
	team, ok := m.teams[teamID]
	if !ok {
		return domain.ErrTeamNotFound
	}
	team.TokenInvalid = true
	return nil
}

func (m *memTeams) Delete(_ context.Context, teamID string) error {
	delete(m.teams, teamID)
	return nil
}

type memOrgs struct {
	orgs map[string]*domain.SpaceOrg
}

func (m *memOrgs) GetByClientID(_ context.Context, clientID string) (*domain.SpaceOrg, error) {
	org, ok := m.orgs[clientID]
	if !ok {
		return nil, domain.ErrOrgNotFound
	}
	copied := *org
	return &copied, nil
}

func (m *memOrgs) Save(_ context.Context, org domain.SpaceOrg) error {
	m.orgs[org.ClientID] = &org
	return nil
}

func (m *memOrgs) Delete(_ context.Context, clientID string) error {
	delete(m.orgs, clientID)
	return nil
}

type memRefs struct {
	mu   sync.Mutex
	refs []*domain.MessageRef
}

func (m *memRefs) GetBySlackMessage(_ context.Context, teamID, slackMessageID string) (*domain.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refs {
		if r.SlackTeamID == teamID && r.SlackMessageID == slackMessageID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, domain.ErrRefNotFound
}

func (m *memRefs) GetBySpaceMessage(_ context.Context, teamID, spaceMessageID string) (*domain.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refs {
		if r.SlackTeamID == teamID && r.SpaceMessageID == spaceMessageID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, domain.ErrRefNotFound
}

func (m *memRefs) SetIfAbsent(_ context.Context, teamID, slackMessageID, spaceMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refs {
		if r.SlackTeamID == teamID && r.SlackMessageID == slackMessageID {
			return nil
		}
	}
	m.refs = append(m.refs, &domain.MessageRef{
		SlackTeamID:    teamID,
		SlackMessageID: slackMessageID,
		SpaceMessageID: spaceMessageID,
	})
	return nil
}

func (m *memRefs) MarkDeletedBySlackMessage(_ context.Context, teamID, slackMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refs {
		if r.SlackTeamID == teamID && r.SlackMessageID == slackMessageID {
			r.Deleted = true
		}
	}
	return nil
}

func (m *memRefs) MarkDeletedBySpaceMessage(_ context.Context, teamID, spaceMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refs {
		if r.SlackTeamID == teamID && r.SpaceMessageID == spaceMessageID {
			r.Deleted = true
		}
	}
	return nil
}

type memDirectory struct {
	dirs map[string]*domain.TeamDirectory
}

func (m *memDirectory) Get(_ context.Context, teamID string) (*domain.TeamDirectory, error) {
	dir, ok := m.dirs[teamID]
	if !ok {
		return nil, nil
	}
	copied := *dir
	return &copied, nil
}

func (m *memDirectory) Store(_ context.Context, dir domain.TeamDirectory) error {
	m.dirs[dir.TeamID] = &dir
	return nil
}

func (m *memDirectory) ClearTeam(_ context.Context, teamID string) error {
	delete(m.dirs, teamID)
	return nil
}

func (m *memDirectory) ClearAll(_ context.Context) error {
	m.dirs = map[string]*domain.TeamDirectory{}
	return nil
}

type postedFile struct {
	channel string
	ts      string
}

// fakeSlackAPI records calls and serves canned directory data.
type fakeSlackAPI struct {
	users        map[string]*slack.User
	usersByEmail map[string]*slack.User
	channels     map[string]*slack.Channel
	team         *slack.Team
	usergroups   []slack.Usergroup
	channelList  []slack.Channel
	files        map[string][]byte

	postTS      string
	postErr     error
	posted      []slack.PostMessageRequest
	updated     []slack.UpdateMessageRequest
	deleted     []postedFile
	remoteFiles []slack.FilesRemoteAddRequest
	listCalls   int
}

func newFakeSlackAPI() *fakeSlackAPI {
	return &fakeSlackAPI{
		users:        map[string]*slack.User{},
		usersByEmail: map[string]*slack.User{},
		channels:     map[string]*slack.Channel{},
		files:        map[string][]byte{},
		postTS:       "1712345680.000100",
	}
}

func (f *fakeSlackAPI) PostMessage(_ context.Context, msg slack.PostMessageRequest) (*slack.PostMessageResponse, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.posted = append(f.posted, msg)
	return &slack.PostMessageResponse{TS: f.postTS}, nil
}

func (f *fakeSlackAPI) UpdateMessage(_ context.Context, msg slack.UpdateMessageRequest) error {
	f.updated = append(f.updated, msg)
	return nil
}

func (f *fakeSlackAPI) DeleteMessage(_ context.Context, channelID, ts string) error {
	f.deleted = append(f.deleted, postedFile{channel: channelID, ts: ts})
	return nil
}

func (f *fakeSlackAPI) GetChannelInfo(_ context.Context, channelID string) (*slack.Channel, error) {
	return f.channels[channelID], nil
}

func (f *fakeSlackAPI) ListChannels(_ context.Context) ([]slack.Channel, error) {
	f.listCalls++
	return f.channelList, nil
}

func (f *fakeSlackAPI) GetUserByID(_ context.Context, userID string) (*slack.User, error) {
	return f.users[userID], nil
}

func (f *fakeSlackAPI) LookupUserByEmail(_ context.Context, email string) (*slack.User, error) {
	return f.usersByEmail[email], nil
}

func (f *fakeSlackAPI) GetTeamInfo(_ context.Context, _ string) (*slack.Team, error) {
	return f.team, nil
}

func (f *fakeSlackAPI) ListUsergroups(_ context.Context) ([]slack.Usergroup, error) {
	return f.usergroups, nil
}

func (f *fakeSlackAPI) AddRemoteFile(_ context.Context, req slack.FilesRemoteAddRequest) error {
	f.remoteFiles = append(f.remoteFiles, req)
	return nil
}

func (f *fakeSlackAPI) DownloadFile(_ context.Context, fileURL string) ([]byte, error) {
	return f.files[fileURL], nil
}

type importCall struct {
	channel  space.ChannelIdentifier
	messages []space.ImportMessage
	suppress bool
}

// fakeSpaceAPI records import calls and serves canned records keyed by
// "<channelID>/<messageID>".
type fakeSpaceAPI struct {
	imports         []importCall
	messages        map[string]*space.ChannelItemRecord
	byExternalID    map[string]*space.ChannelItemRecord
	threadRoots     map[string]*space.ChannelItemRecord
	profilesByEmail map[string]*space.ProfileRecord
	profiles        map[string]*space.ProfileRecord
	attachmentURLs  map[string]string

	registeredUI    bool
	rightsRequested bool
	uploads         []string
}

func newFakeSpaceAPI() *fakeSpaceAPI {
	return &fakeSpaceAPI{
		messages:        map[string]*space.ChannelItemRecord{},
		byExternalID:    map[string]*space.ChannelItemRecord{},
		threadRoots:     map[string]*space.ChannelItemRecord{},
		profilesByEmail: map[string]*space.ProfileRecord{},
		profiles:        map[string]*space.ProfileRecord{},
		attachmentURLs:  map[string]string{},
	}
}

func (f *fakeSpaceAPI) ImportMessages(_ context.Context, channel space.ChannelIdentifier, messages []space.ImportMessage, suppressNotifications bool) error {
	f.imports = append(f.imports, importCall{channel: channel, messages: messages, suppress: suppressNotifications})
	return nil
}

func (f *fakeSpaceAPI) GetMessage(_ context.Context, channelID, messageID string) (*space.ChannelItemRecord, error) {
	if rec, ok := f.messages[channelID+"/"+messageID]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("no such message %s in %s", messageID, channelID)
}

func (f *fakeSpaceAPI) GetMessageByExternalID(_ context.Context, channelID, externalID string) (*space.ChannelItemRecord, error) {
	return f.byExternalID[channelID+"/"+externalID], nil
}

func (f *fakeSpaceAPI) GetThreadRoot(_ context.Context, threadID string) (*space.ChannelItemRecord, error) {
	return f.threadRoots[threadID], nil
}

func (f *fakeSpaceAPI) ParseMarkdown(_ context.Context, text string) (*space.RtDocument, error) {
	return &space.RtDocument{Children: []space.RtNode{{
		ClassName: space.ClassRtParagraph,
		Children:  []space.RtNode{{ClassName: space.ClassRtText, Value: text}},
	}}}, nil
}

func (f *fakeSpaceAPI) GetProfileByEmail(_ context.Context, email string) (*space.ProfileRecord, error) {
	return f.profilesByEmail[email], nil
}

func (f *fakeSpaceAPI) GetProfile(_ context.Context, profileID string) (*space.ProfileRecord, error) {
	return f.profiles[profileID], nil
}

func (f *fakeSpaceAPI) CreateUpload(_ context.Context) (string, error) {
	return "/uploads/u1", nil
}

func (f *fakeSpaceAPI) Upload(_ context.Context, uploadPath, name string, _ []byte) (string, error) {
	f.uploads = append(f.uploads, uploadPath+"/"+name)
	return "att-" + name, nil
}

func (f *fakeSpaceAPI) GetPublicAttachmentURL(_ context.Context, channelID, messageID, attachmentID string) (string, error) {
	return f.attachmentURLs[attachmentID], nil
}

func (f *fakeSpaceAPI) RegisterUIExtension(_ context.Context) error {
	f.registeredUI = true
	return nil
}

func (f *fakeSpaceAPI) RequestRights(_ context.Context, _ ...string) error {
	f.rightsRequested = true
	return nil
}
