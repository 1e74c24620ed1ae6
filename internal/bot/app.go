// Package bot assembles the shop assistant: catalogue browsing, price
// lookups, operator edits, and the interactive total calculation flow.
package bot

import (
	"context"
	"time"

	"github.com/m3rciful/shopbot/core/config"
	"github.com/m3rciful/shopbot/core/logger"
	tg "github.com/m3rciful/shopbot/core/telegram"
	"github.com/m3rciful/shopbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/shopbot/core/telegram/helpers"
	"github.com/m3rciful/shopbot/core/telegram/router"
	"github.com/m3rciful/shopbot/core/telegram/state"
	"github.com/m3rciful/shopbot/internal/shop"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques. Page payloads carry the target page number; selection
// picks carry "<page>:<index>:<key hash>" into the sorted catalogue (see
// pickToken), and search picks carry the item key itself.
const (
	cbShopPage    = "shop_page"
	cbTotalPage   = "total_page"
	cbTotalPick   = "total_pick"
	cbTotalCalc   = "total_calc"
	cbTotalClear  = "total_clear"
	cbTotalCancel = "total_close"
	cbSearchPick  = "search_pick"

	cbQtyBack   = "qty_back"
	cbQtySkip   = "qty_skip"
	cbQtyFinish = "qty_finish"
	cbQtyCancel = "qty_cancel"
)

// App owns the bot's domain wiring and registers it with the transport.
type App struct {
	cfg       *config.Config
	store     *shop.Store
	selection *shop.SelectionStore
	fsm       state.Manager
	flow      *totalFlow
	reg       *tg.Registry

	pageSize  int
	operators []int64
}

// New builds the application around an opened catalogue store.
func New(cfg *config.Config, store *shop.Store) *App {
	fsm := state.NewMemoryManager()
	selection := shop.NewSelectionStore()
	timeout := time.Duration(cfg.Shop.PromptTimeoutSeconds) * time.Second

	a := &App{
		cfg:       cfg,
		store:     store,
		selection: selection,
		fsm:       fsm,
		flow:      newTotalFlow(store, selection, fsm, timeout),
		reg:       tg.NewRegistry(),
		pageSize:  cfg.Shop.PageSize,
		operators: cfg.Shop.Operators,
	}
	a.register()
	return a
}

func (a *App) isOperator(userID int64) bool {
	for _, id := range a.operators {
		if id == userID {
			return true
		}
	}
	return false
}

func (a *App) register() {
	a.reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Welcome message",
	})
	a.reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "List available commands",
	})
	a.reg.RegisterCommand("/shop", commands.Command{
		Handler:     a.handleShop,
		Description: "Browse the shop catalogue",
		Aliases:     []string{"items"},
	})
	a.reg.RegisterCommand("/price", commands.Command{
		Handler:     a.handlePrice,
		Description: "Look up buy/sell prices for an item",
	})
	a.reg.RegisterCommand("/search", commands.Command{
		Handler:     a.handleSearch,
		Description: "Search items by name",
		Aliases:     []string{"find"},
	})
	a.reg.RegisterCommand("/total", commands.Command{
		Handler:     a.handleTotal,
		Description: "Calculate total buy/sell value of selected items",
	})
	a.reg.RegisterCommand("/additem", commands.Command{
		Handler:      a.handleAddItem,
		Description:  "Add an item to the shop",
		OperatorOnly: true,
	})
	a.reg.RegisterCommand("/removeitem", commands.Command{
		Handler:      a.handleRemoveItem,
		Description:  "Remove an item from the shop",
		OperatorOnly: true,
	})

	_ = a.reg.RegisterCallback(cbShopPage, a.handleShopPage)
	_ = a.reg.RegisterCallback(cbTotalPage, a.handleTotalPage)
	_ = a.reg.RegisterCallback(cbTotalPick, a.handleTotalPick)
	_ = a.reg.RegisterCallback(cbTotalCalc, a.handleTotalCalc)
	_ = a.reg.RegisterCallback(cbTotalClear, a.handleTotalClear)
	_ = a.reg.RegisterCallback(cbTotalCancel, a.handleTotalClose)
	_ = a.reg.RegisterCallback(cbSearchPick, a.handleSearchPick)

	_ = a.reg.RegisterCallback(cbQtyBack, a.flow.Back)
	_ = a.reg.RegisterCallback(cbQtySkip, a.flow.Skip)
	_ = a.reg.RegisterCallback(cbQtyFinish, a.flow.Finish)
	_ = a.reg.RegisterCallback(cbQtyCancel, a.flow.Cancel)

	state.RegisterHandler(stateAwaitQuantity, a.flow.HandleReply)
}

// Run starts the Telegram transport and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	rejectOperator := func(c tele.Context) error {
		return tghelpers.SendText(c, "⛔ This command is restricted to shop operators.")
	}

	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		Operators:        a.operators,
		OnOperatorReject: rejectOperator,
	})
	routes = append(routes,
		router.CallbackRoute(a.reg, router.CallbackOptions{}),
		router.TextRoute(a.fsm, a.reg, router.TextOptions{}),
	)

	return tg.RunTelegram(ctx, tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.flow.SetBot(rt.Bot)
			logger.SVCShop.Info("shop bot started",
				slog.String("event", "start"),
				slog.Int("items", a.store.Len()),
				slog.Int("operators", len(a.operators)),
				slog.String("shop_file", a.store.Path()),
			)
			return nil
		},
		OnStop: func(_ context.Context, _ tg.Runtime) error {
			logger.SVCShop.Info("shop bot stopped", slog.String("event", "stop"))
			return nil
		},
	})
}
