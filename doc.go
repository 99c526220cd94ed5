// Package tokensale provides a fixed-price, whitelist-gated token sale ledger
// for Go applications.
//
// Tokensale is designed as a library, not a service. A Ledger accepts an
// input asset from buyers during a sale window, records how much of the
// output asset each buyer is owed, and pays out those entitlements once the
// owner finalizes the sale. It provides:
//
//   - Fixed-price purchases with a cumulative input cap
//   - Optional whitelist gating (explicit guests or Merkle proofs)
//   - One voting group per buyer, tallied per group
//   - Finalization guarded by an output reserve check
//   - One-shot claims and owner sweeps of surplus funds
//   - Persistent state and event journal (PostgreSQL, SQLite, MongoDB, memory)
//   - Plugin hooks for audit trails and Prometheus metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/tokensale"
//	    "github.com/xraph/tokensale/store/memory"
//	)
//
//	l := tokensale.New(memory.New(),
//	    tokensale.WithAddress(saleAddr),
//	    tokensale.WithOwner(owner),
//	)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
//	err := l.Initialize(ctx, owner, tokensale.InitParams{
//	    OutputAsset:   outToken,
//	    InputAsset:    usdc,
//	    SaleStart:     time.Now().Add(time.Hour),
//	    SaleDuration:  7 * 24 * time.Hour,
//	    TokenOutPrice: uint256.NewInt(500_000), // 0.5 USDC per output token
//	    SaleRecipient: treasury,
//	    InputLimit:    types.Whole(1_000_000, 6),
//	})
//
// # Lifecycle
//
// A sale moves through three phases. Before Initialize only Pause, Unpause
// and TransferOwnership succeed; every other operation fails with
// ErrNotInitialized. While the window is open, Buy moves input
// from the buyer to the sale recipient and credits the buyer with
//
//	floor(amountIn * 10^outputDecimals / tokenOutPrice)
//
// output units. Once the window has elapsed or the cap is reached, the owner
// calls Finalize, which checks that the ledger address holds enough output to
// cover every entitlement. After that Claim pays each buyer exactly once.
//
// # Atomicity
//
// Every operation runs under one mutex. The single external call that can
// fail (an asset transfer) happens after every check and before any state
// changes, so a rejected call never leaves partial state behind. Plugins are
// notified after the mutex is released.
//
// # TypeID
//
// The sale record and journal entries use TypeID identifiers:
//
//	sale_01h2xcejqtf2nbrexx3vqjhp41  // Sale ID
//	evt_01h455vb4pex5vsknk084sn02q   // Event record ID
package tokensale
