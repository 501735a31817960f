package main

import (
	"net/http"

	"github.com/sushihentaime/nexus/internal/blogservice"
	"github.com/sushihentaime/nexus/internal/reviewservice"
	"github.com/sushihentaime/nexus/internal/userservice"
)

type deleteRequest struct {
	ID string `json:"id"`
}

func (app *application) respond(w http.ResponseWriter, r *http.Request, status int, env envelope) {
	if err := app.writeJSON(w, status, env, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// blogs

func (app *application) getAllBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPagination(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.GetBlogs(r.Context(), page, limit)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	writePage(app, w, r, "blogs", blogs)
}

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.CreateBlogRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.CreateBlog(r.Context(), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusCreated, envelope{"message": "New blog created successfully", "blog": blog})
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input blogservice.UpdateBlogRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.UpdateBlog(r.Context(), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "Blog updated successfully", "blog": blog})
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	var input deleteRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if err := app.blogService.DeleteBlog(r.Context(), input.ID); err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "Blog deleted successfully"})
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	blog, err := app.blogService.GetBlogBySlug(r.Context(), app.readParam(r, "slug"))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"blog": blog})
}

// reviews

func (app *application) getAllReviewsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPagination(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	reviews, err := app.reviewService.GetReviews(r.Context(), page, limit)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	writePage(app, w, r, "reviews", reviews)
}

func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var input reviewservice.CreateReviewRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	review, err := app.reviewService.CreateReview(r.Context(), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusCreated, envelope{"message": "New review created successfully", "review": review})
}

func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	var input reviewservice.UpdateReviewRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	review, err := app.reviewService.UpdateReview(r.Context(), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "Review updated successfully", "review": review})
}

func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	var input deleteRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if err := app.reviewService.DeleteReview(r.Context(), input.ID); err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "Review deleted successfully"})
}

func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	review, err := app.reviewService.GetReview(r.Context(), app.readParam(r, "id"))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"review": review})
}

// users

func (app *application) getAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPagination(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	users, err := app.userService.GetUsers(r.Context(), page, limit)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	writePage(app, w, r, "users", users)
}

func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.CreateUserRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, err := app.userService.CreateUser(r.Context(), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusCreated, envelope{"message": "New user created successfully", "user": user})
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.UpdateUserRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, err := app.userService.UpdateUser(r.Context(), &input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "User updated successfully", "user": user})
}

func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.ChangePasswordRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if err := app.userService.ChangePassword(r.Context(), &input); err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "Password updated successfully"})
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	var input deleteRequest

	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	if err := app.userService.DeleteUser(r.Context(), input.ID); err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"message": "User deleted successfully"})
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := app.userService.GetUser(r.Context(), app.readParam(r, "id"))
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	app.respond(w, r, http.StatusOK, envelope{"user": user})
}
