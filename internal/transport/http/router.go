package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpmw "github.com/kangminLeo/Ironbot/internal/transport/http/middleware"
)

func NewRouter(h *Handler, verifier *httpmw.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(pr chi.Router) {
		pr.Use(verifier.Middleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/communities/{cid}", func(cr chi.Router) {
			cr.Get("/leaderboard", h.GetLeaderboard)
			cr.Get("/participants/{uid}/points", h.GetBalance)
			cr.Get("/participants/{uid}/purchases", h.GetPurchases)
			cr.Get("/shop", h.ListShop)
			cr.Post("/shop/{itemID}/buy", h.BuyShopItem)

			// mutations need the admin claim
			cr.Group(func(ar chi.Router) {
				ar.Use(httpmw.AdminOnly)
				ar.Post("/participants/{uid}/points/add", h.AddPoints)
				ar.Post("/participants/{uid}/points/remove", h.RemovePoints)
				ar.Post("/participants/{uid}/points/set", h.SetPoints)
				ar.Put("/settings/afk-room", h.SetAFKRoom)
				ar.Put("/settings/log-room", h.SetLogRoom)
				ar.Post("/shop", h.AddShopItem)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
