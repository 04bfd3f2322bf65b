package gitrepo

import (
	"net/url"
	"path"
	"strings"
)

const (
	schemeSeparatorConstant        = "://"
	gitSuffixConstant              = ".git"
	pathSeparatorConstant          = "/"
	scpPathDelimiterConstant       = ":"
	redactedPasswordConstant       = "xxxxx"
	unknownRepositoryNameConstant  = "repository"
	windowsPathSeparatorConstant   = "\\"
	userInfoDelimiterConstant      = "@"
	emptyRemoteDescriptionConstant = ""
	httpSchemeConstant             = "http"
	httpsSchemeConstant            = "https"
)

// RedactRemoteURL hides credentials embedded in a remote URL so it can be logged or persisted.
// Scheme URLs lose their password; HTTP(S) URLs carrying only a user component lose it too
// because hosting providers accept tokens in that position. scp-style and local paths are
// returned unchanged apart from surrounding whitespace.
func RedactRemoteURL(remote string) string {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return emptyRemoteDescriptionConstant
	}
	if !strings.Contains(trimmedRemote, schemeSeparatorConstant) {
		return trimmedRemote
	}

	parsedRemote, parseError := url.Parse(trimmedRemote)
	if parseError != nil || parsedRemote.User == nil {
		return trimmedRemote
	}

	userName := parsedRemote.User.Username()
	if _, hasPassword := parsedRemote.User.Password(); hasPassword {
		parsedRemote.User = url.UserPassword(userName, redactedPasswordConstant)
	} else if parsedRemote.Scheme == httpSchemeConstant || parsedRemote.Scheme == httpsSchemeConstant {
		parsedRemote.User = url.User(redactedPasswordConstant)
	}

	return parsedRemote.String()
}

// RepositoryName extracts the final path component of a remote without the .git suffix.
func RepositoryName(remote string) string {
	trimmedRemote := strings.TrimSpace(remote)
	trimmedRemote = strings.TrimRight(trimmedRemote, pathSeparatorConstant+windowsPathSeparatorConstant)
	if len(trimmedRemote) == 0 {
		return unknownRepositoryNameConstant
	}

	remotePath := trimmedRemote
	if strings.Contains(trimmedRemote, schemeSeparatorConstant) {
		if parsedRemote, parseError := url.Parse(trimmedRemote); parseError == nil {
			remotePath = parsedRemote.Path
		}
	} else if userIndex := strings.Index(trimmedRemote, userInfoDelimiterConstant); userIndex >= 0 {
		if delimiterIndex := strings.Index(trimmedRemote[userIndex:], scpPathDelimiterConstant); delimiterIndex >= 0 {
			remotePath = trimmedRemote[userIndex+delimiterIndex+1:]
		}
	}

	remotePath = strings.ReplaceAll(remotePath, windowsPathSeparatorConstant, pathSeparatorConstant)
	baseName := strings.TrimSuffix(path.Base(remotePath), gitSuffixConstant)
	if len(baseName) == 0 || baseName == "." || baseName == pathSeparatorConstant {
		return unknownRepositoryNameConstant
	}
	return baseName
}
