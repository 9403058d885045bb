package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/indstore/storefront/internal/cart"
	"github.com/indstore/storefront/internal/checkout"
	"github.com/indstore/storefront/internal/filter"
	"github.com/indstore/storefront/pkg/enums"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/money"
	"github.com/indstore/storefront/pkg/types"
)

const usage = `usage: storefront <command> [flags]

commands:
  products [-search s] [-category c] [-max-price n]   list the catalog
  add <product-id>                                     add one unit to the cart
  remove <product-id>                                  remove a line from the cart
  cart                                                 show the cart
  checkout -method card|paypal                         create a checkout session
`

type productLoader interface {
	LoadProducts(ctx context.Context) ([]types.Product, error)
}

// app bundles what the commands need. It is built once per process.
type app struct {
	catalog  productLoader
	cart     *cart.Store
	sessions checkout.SessionRequester
	out      io.Writer
	logg     *logger.Logger
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return pkgerrors.New(pkgerrors.CodeValidation, "missing command")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "products":
		return a.products(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "remove":
		return a.remove(ctx, rest)
	case "cart":
		a.printCart()
		return nil
	case "checkout":
		return a.checkout(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(a.out, usage)
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown command %q", cmd)
	}
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	fs.SetOutput(a.out)
	search := fs.String("search", "", "case-insensitive name filter")
	category := fs.String("category", filter.CategoryAll, "category filter")
	maxPrice := fs.Float64("max-price", filter.DefaultPriceCeiling, "price ceiling in USD, kept within the slider range")
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flags")
	}

	// A failed load already logged; the empty list still renders.
	products, _ := a.catalog.LoadProducts(ctx)

	criteria := filter.Criteria{
		Search:       *search,
		Category:     *category,
		PriceCeiling: filter.ClampBounds(*maxPrice),
	}
	visible := filter.Visible(products, criteria)

	fmt.Fprintf(a.out, "Categories: %s\n", strings.Join(filter.Categories(products), ", "))
	fmt.Fprintf(a.out, "Max price: %s\n", formatUSD(criteria.PriceCeiling))
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "No products match.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range visible {
		stock := fmt.Sprintf("%d", p.Stock)
		if !p.InStock() {
			stock = cart.MessageOutOfStock
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, formatUSD(p.Price), stock)
	}
	return tw.Flush()
}

func (a *app) add(ctx context.Context, args []string) error {
	id, err := singleArg("add", args)
	if err != nil {
		return err
	}

	products, err := a.catalog.LoadProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == id {
			if err := a.cart.Add(ctx, p); err != nil && !errors.Is(err, cart.ErrOutOfStock) {
				return err
			}
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %q not found", id)
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, err := singleArg("remove", args)
	if err != nil {
		return err
	}
	a.cart.Remove(ctx, id)
	a.printCart()
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(a.out)
	methodFlag := fs.String("method", "", "payment gateway: card or paypal")
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flags")
	}

	method, err := enums.ParsePaymentMethod(*methodFlag)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "select card or paypal")
	}

	machine, err := checkout.NewMachine(a.cart, a.sessions, a.logg)
	if err != nil {
		return err
	}
	machine.Open(ctx)
	if err := machine.Proceed(ctx); err != nil {
		return err
	}
	if err := machine.SelectMethod(ctx, method); err != nil {
		return err
	}

	url, err := machine.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Redirecting to %s\n", url)
	return nil
}

func (a *app) printCart() {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tLINE TOTAL")
	for _, line := range lines {
		price := money.FromFloat(line.Product.Price)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t$%s\n",
			line.Product.ID, line.Product.Name, line.Quantity,
			formatUSD(line.Product.Price), money.LineTotal(price, line.Quantity).StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "Total: $%s\n", a.cart.Total().StringFixed(2))
}

func singleArg(cmd string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "usage: storefront %s <product-id>", cmd)
	}
	return strings.TrimSpace(args[0]), nil
}

func formatUSD(v float64) string {
	return "$" + money.FromFloat(v).StringFixed(2)
}

func printNotice(out io.Writer) cart.NotifierFunc {
	return func(_ context.Context, n cart.Notice) {
		prefix := "ok"
		if n.Kind == cart.NoticeError {
			prefix = "error"
		}
		fmt.Fprintf(out, "[%s] %s\n", prefix, n.Message)
	}
}
