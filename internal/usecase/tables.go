package usecase

import (
	"errors"
	"maps"

	"nimli/internal/shared"
	"nimli/internal/validation"
)

// Use-case names, used as mapping table keys, log attributes and metric labels.
const (
	OpSendPhoneVerification   = "SendPhoneVerification"
	OpVerifyPhoneCode         = "VerifyPhoneCode"
	OpGetPopularCreators      = "GetPopularCreators"
	OpGetPopularTags          = "GetPopularTags"
	OpGetCreatorDetail        = "GetCreatorDetail"
	OpSearchCreatorsByTags    = "SearchCreatorsByTags"
	OpSearchCreatorsByName    = "SearchCreatorsByName"
	OpSearchTagsByName        = "SearchTagsByName"
	OpGetTagListByIDs         = "GetTagListByIDs"
	OpGetFavoriteCreators     = "GetFavoriteCreators"
	OpAddFavoriteCreator      = "AddFavoriteCreator"
	OpRemoveFavoriteCreator   = "RemoveFavoriteCreator"
	OpCheckFavoriteStatus     = "CheckFavoriteStatus"
	OpSaveSearchHistory       = "SaveSearchHistory"
	OpGetSearchHistory        = "GetSearchHistory"
	OpClearSearchHistory      = "ClearSearchHistory"
	OpSubmitTagApplication    = "SubmitTagApplication"
	OpSubmitCorrectionRequest = "SubmitCorrectionRequest"
)

// Table maps every repository kind to exactly one use-case kind.
type Table map[shared.Kind]Kind

// Map translates err through the table. Use-case errors pass through
// unchanged, validator failures keep their reason, and anything else is
// first classified by shared.MapError.
func (t Table) Map(err error) *Error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue
	}
	var ve *validation.Error
	if errors.As(err, &ve) {
		return invalid(err)
	}
	re := shared.MapError(err)
	kind, ok := t[re.Kind]
	if !ok {
		kind = KindUnknown
	}
	return &Error{Kind: kind, Message: re.Message, Cause: re}
}

func (t Table) with(from shared.Kind, to Kind) Table {
	out := maps.Clone(t)
	out[from] = to
	return out
}

var defaultTable = Table{
	shared.KindNetwork:      KindRepository,
	shared.KindDecoding:     KindRepository,
	shared.KindEncoding:     KindRepository,
	shared.KindServer:       KindRepository,
	shared.KindNotFound:     KindNotFound,
	shared.KindUnauthorized: KindUnauthorized,
	shared.KindUnknown:      KindUnknown,
}

// creatorTable is used wherever a missing entity can only be the creator
// named in the request.
var creatorTable = defaultTable.with(shared.KindNotFound, KindCreatorNotFound)

// Tables holds the mapping table of every use-case that reaches a repository.
// Phone verification errors come from the provider taxonomy instead and are
// translated by a fixed code table.
var Tables = map[string]Table{
	OpGetPopularCreators:      defaultTable,
	OpGetPopularTags:          defaultTable,
	OpGetCreatorDetail:        creatorTable,
	OpSearchCreatorsByTags:    defaultTable,
	OpSearchCreatorsByName:    defaultTable,
	OpSearchTagsByName:        defaultTable,
	OpGetTagListByIDs:         defaultTable,
	OpGetFavoriteCreators:     defaultTable,
	OpAddFavoriteCreator:      creatorTable,
	OpRemoveFavoriteCreator:   defaultTable,
	OpCheckFavoriteStatus:     defaultTable,
	OpSaveSearchHistory:       defaultTable,
	OpGetSearchHistory:        defaultTable,
	OpClearSearchHistory:      defaultTable,
	OpSubmitTagApplication:    creatorTable,
	OpSubmitCorrectionRequest: creatorTable,
}

func tableFor(op string) Table {
	if t, ok := Tables[op]; ok {
		return t
	}
	return defaultTable
}
