package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskhub/api/transport"
	"github.com/fastygo/taskhub/domain"
	profileUC "github.com/fastygo/taskhub/usecase/profile"
)

const msgProfileUpdateFailed = "Failed to update profile"

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, common Common) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(common),
		uc:          uc,
	}
}

// @Summary Get the caller's profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/user/profile/ [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respond(ctx, http.StatusOK, transport.NewUserView(user, h.urls(ctx), h.now()), "User profile retrieved successfully")
}

// @Summary Update the caller's profile
// @Tags profile
// @Accept json,mpfd
// @Produce json
// @Router /api/v1/user/update_profile/ [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}

	var (
		req     transport.ProfileUpdateRequest
		uploads profileUC.Uploads
	)
	if isMultipart(ctx) {
		form, err := ctx.MultipartForm()
		if err != nil {
			h.respond(ctx, http.StatusBadRequest, nil, "Multipart form parse error - "+err.Error())
			return
		}
		req = profileRequestFromForm(form)

		closeAll, err := openUploads(form, &uploads)
		defer closeAll()
		if err != nil {
			h.respond(ctx, http.StatusBadRequest, nil, msgProfileUpdateFailed)
			return
		}
	} else if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := req.Patch()
	if err == nil {
		var user *domain.User
		if user, err = h.uc.UpdateProfile(stdCtx, userID, patch, uploads); err == nil {
			h.respond(ctx, http.StatusOK, transport.NewUserView(user, h.urls(ctx), h.now()), "User profile updated successfully")
			return
		}
	}

	if vErr, ok := domain.AsValidationError(err); ok {
		h.respond(ctx, http.StatusBadRequest, vErr.Fields(), msgProfileUpdateFailed)
		return
	}
	h.respondError(ctx, stdCtx, err)
}

func isMultipart(ctx *fasthttp.RequestCtx) bool {
	return bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("multipart/form-data"))
}

// profileRequestFromForm accepts user fields both flat and as "user.<field>".
func profileRequestFromForm(form *multipart.Form) transport.ProfileUpdateRequest {
	value := func(keys ...string) *string {
		for _, key := range keys {
			if vals, ok := form.Value[key]; ok && len(vals) > 0 {
				v := vals[0]
				return &v
			}
		}
		return nil
	}

	req := transport.ProfileUpdateRequest{
		Country:       value("country"),
		City:          value("city"),
		PhoneNumber:   value("phone_number"),
		Bio:           value("bio"),
		Gender:        value("gender"),
		DateOfBirth:   value("date_of_birth"),
		MaritalStatus: value("marital_status"),
		Work:          value("work"),
		Education:     value("education"),
	}
	user := transport.ProfileUserRequest{
		FirstName: value("user.first_name", "first_name"),
		LastName:  value("user.last_name", "last_name"),
		Username:  value("user.username", "username"),
	}
	if user.FirstName != nil || user.LastName != nil || user.Username != nil {
		req.User = &user
	}
	return req
}

// openUploads opens the picture parts of form. The returned func closes
// whatever was opened and is safe to call on error.
func openUploads(form *multipart.Form, uploads *profileUC.Uploads) (func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	open := func(field string) (*profileUC.Upload, error) {
		headers := form.File[field]
		if len(headers) == 0 {
			return nil, nil
		}
		f, err := headers[0].Open()
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return &profileUC.Upload{Filename: headers[0].Filename, Content: f}, nil
	}

	var err error
	if uploads.ProfilePicture, err = open("profile_picture"); err != nil {
		return closeAll, err
	}
	if uploads.CoverPicture, err = open("cover_picture"); err != nil {
		return closeAll, err
	}
	return closeAll, nil
}
