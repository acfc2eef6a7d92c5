package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/gitarch/poap-service/internal/dtos"
	"github.com/gitarch/poap-service/internal/services"
	"github.com/gitarch/poap-service/internal/utils"
)

type PoapController struct {
	mintService *services.MintService
}

func NewPoapController(s *services.MintService) *PoapController {
	return &PoapController{mintService: s}
}

var validate = validator.New()

// ----------------------------------------------------------------
// POST /api/v1/poaps/mint
// ----------------------------------------------------------------
func (c *PoapController) MintPoapHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.MintPoapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON payload", nil, err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "project_id and user_id are required", nil, err,
		)
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "project_id is not a valid UUID", nil, err,
		)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "user_id is not a valid UUID", nil, err,
		)
		return
	}

	poap, svcErr := c.mintService.MintPoap(r.Context(), projectID, userID, req.WalletAddress)
	if svcErr != nil {
		respondMintError(w, svcErr)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, dtos.MintPoapResponse{
		Poap:    poap,
		Message: "POAP minted successfully",
	})
}

// respondMintError maps each flow failure to a distinct, non-technical
// response; raw error text goes to the log only.
func respondMintError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrProjectNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "Project not found", nil, err)
	case errors.Is(err, utils.ErrUserNotFound):
		utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "User not found", nil, err)
	case errors.Is(err, utils.ErrMissingWalletLink):
		utils.RespondErrorWithCode(w, http.StatusUnprocessableEntity, utils.ErrCodeMissingWalletLink, "User has no connected wallet", nil, err)
	case errors.Is(err, utils.ErrPinningFailed):
		utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodePinningFailed, "Could not store POAP metadata", nil, err)
	case errors.Is(err, utils.ErrSignerUnavailable):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeSignerUnavailable, "No signer available for this wallet", nil, err)
	case errors.Is(err, utils.ErrUserRejected):
		utils.RespondErrorWithCode(w, http.StatusConflict, utils.ErrCodeUserRejected, "Signing request was rejected", nil, err)
	case errors.Is(err, utils.ErrContractUnavailable):
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeContractUnavailable, "POAP contract is unavailable", nil, err)
	case errors.Is(err, utils.ErrTransactionFailed):
		utils.RespondErrorWithCode(w, http.StatusBadGateway, utils.ErrCodeTransactionFailed, "Mint transaction failed", nil, err)
	case errors.Is(err, utils.ErrFinalizeTimeout):
		utils.RespondErrorWithCode(w, http.StatusGatewayTimeout, utils.ErrCodeFinalizeTimeout, "Mint transaction was not finalized in time", nil, err)
	case errors.Is(err, utils.ErrLedgerWriteFailed):
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeLedgerWriteFailed, "Mint succeeded on-chain but recording it failed; it will be repaired", nil, err)
	default:
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not mint POAP", nil, err)
	}
}

// ----------------------------------------------------------------
// GET /api/v1/poaps/user/{userID}
// ----------------------------------------------------------------
func (c *PoapController) ListUserPoapsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["userID"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "userID is not a valid UUID", nil, err)
		return
	}
	poaps, svcErr := c.mintService.PoapsForUser(r.Context(), userID)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Errorf("Failed to list POAPs for user %s", userID)
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not list POAPs", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.PoapListResponse{Poaps: poaps})
}

// ----------------------------------------------------------------
// GET /api/v1/poaps/project/{projectID}
// ----------------------------------------------------------------
func (c *PoapController) ListProjectPoapsHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(mux.Vars(r)["projectID"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "projectID is not a valid UUID", nil, err)
		return
	}
	poaps, svcErr := c.mintService.PoapsForProject(r.Context(), projectID)
	if svcErr != nil {
		utils.Logger.WithError(svcErr).Errorf("Failed to list POAPs for project %s", projectID)
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not list POAPs", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.PoapListResponse{Poaps: poaps})
}

// ----------------------------------------------------------------
// GET /api/v1/poaps/{poapID}/metadata-url
// ----------------------------------------------------------------
func (c *PoapController) MetadataURLHandler(w http.ResponseWriter, r *http.Request) {
	poapID, err := uuid.Parse(mux.Vars(r)["poapID"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "poapID is not a valid UUID", nil, err)
		return
	}
	urlStr, svcErr := c.mintService.MetadataGatewayURL(r.Context(), poapID)
	if svcErr != nil {
		if errors.Is(svcErr, utils.ErrPoapNotFound) {
			utils.RespondErrorWithCode(w, http.StatusNotFound, utils.ErrCodeNotFound, "POAP not found", nil, svcErr)
			return
		}
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not resolve metadata URL", nil, svcErr)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MetadataURLResponse{URL: urlStr})
}
